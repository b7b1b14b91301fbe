package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RetryDelays는 재시도 횟수(1-based)별 지연 시간입니다.
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
}

// Topic은 기본 토픽 이름에서 재시도/DLQ 토픽 이름을 파생합니다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ는 DLQ 토픽 이름을 반환합니다 (예: chatline.chat.events.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics는 모든 재시도 토픽 이름을 반환합니다. 형식: base.retry.10s
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = retryTopicName(t.base, delay)
	}
	return topics
}

// GetRetryTopic은 다음 재시도 횟수(1-based)에 해당하는 재시도 토픽 이름을 반환합니다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return retryTopicName(t.base, RetryDelays[retryCount-1]), nil
}

func retryTopicName(base string, delay time.Duration) string {
	return fmt.Sprintf("%s.retry.%s", base, delay.String())
}

// ParseRetryFromTopicName 은 retryTopicName 의 역이다.
// 예: "chatline.chat.events.retry.1m0s" -> 1m0s
func ParseRetryFromTopicName(name string) (time.Duration, bool) {
	_, suffix, ok := strings.Cut(name, ".retry.")
	if !ok || suffix == "" {
		return 0, false
	}
	d, err := time.ParseDuration(suffix)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// Event는 버스로 전달되는 봉투입니다. Payload 는 도메인 이벤트 JSON 입니다.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"`
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

type EventHandler func(ctx context.Context, event Event) error

// EventBus 는 이벤트 발행/구독 추상화입니다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe는 기본 토픽을 구독하고 ctx 가 끝날 때까지 블록합니다.
	// 핸들러가 실패하면 재시도 토픽(또는 DLQ)으로 넘깁니다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector는 재시도 토픽의 이벤트를 지연 후 기본 토픽으로 되돌립니다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var (
	ErrMaxRetryExceeded    = errors.New("최대 재시도 횟수 초과")
	ErrRetryScheduleFailed = errors.New("재시도 또는 DLQ 발행 실패")
	// ErrUndecodable 은 페이로드를 해석할 수 없는 이벤트이다. 재시도 없이 DLQ 로 간다.
	ErrUndecodable = errors.New("eventbus: undecodable payload")
)

// failureRoute 는 실패한 이벤트를 어디로 보낼지 결정한 결과입니다.
type failureRoute struct {
	Topic string
	Event Event
	Dead  bool
}

// routeFailure 는 핸들러 오류를 기록하고 다음 재시도 토픽 또는 DLQ 를 고릅니다.
func routeFailure(topic Topic, evt Event, handlerErr error) failureRoute {
	evt.LastError = handlerErr.Error()
	if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
		evt.MaxRetry = len(RetryDelays)
	}
	next := evt.Retry + 1
	if next > evt.MaxRetry || errors.Is(handlerErr, ErrUndecodable) {
		return failureRoute{Topic: topic.DLQ(), Event: evt, Dead: true}
	}
	retryTopic, err := topic.GetRetryTopic(next)
	if err != nil {
		return failureRoute{Topic: topic.DLQ(), Event: evt, Dead: true}
	}
	evt.Retry = next
	return failureRoute{Topic: retryTopic, Event: evt}
}
