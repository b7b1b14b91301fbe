package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewJSONEvent 는 payload 를 JSON 봉투로 감싼다. 빈 id 는 UUID 로 채운다.
// maxRetry 가 범위를 벗어나면 RetryDelays 단계 수를 쓴다.
func NewJSONEvent(id string, payload any, maxRetry int) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode event payload: %w", err)
	}
	evt := Event{ID: id, Payload: body, MaxRetry: maxRetry}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
		evt.MaxRetry = len(RetryDelays)
	}
	return evt, nil
}

// DecodeJSON 실패는 ErrUndecodable 로 감싸져 재시도 대신 DLQ 로 간다.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: event %s: %v", ErrUndecodable, evt.ID, err)
	}
	return out, nil
}

// SubscribeJSON 은 Subscribe 위에서 페이로드를 T 로 디코딩해 넘긴다.
func SubscribeJSON[T any](ctx context.Context, bus EventBus, groupID string, topic Topic, handler func(ctx context.Context, payload T, meta Event) error) error {
	return bus.Subscribe(ctx, groupID, topic, func(ctx context.Context, evt Event) error {
		payload, err := DecodeJSON[T](evt)
		if err != nil {
			return err
		}
		return handler(ctx, payload, evt)
	})
}
