// Package handler 는 processor 가 소비하는 도메인 이벤트 처리기이다.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatline/eventbus"
	"chatline/events"
	"chatline/logger"
	"chatline/models"
	"chatline/repositories"
)

// UsageHandler 는 chat.turn_completed 를 AI 사용량 로그로 남긴다.
// event_id 로 중복 저장을 막으므로 재시도로 같은 이벤트가 다시 와도 안전하다.
type UsageHandler struct {
	logs repositories.AILogRepository
	now  func() time.Time
}

func NewUsageHandler(logs repositories.AILogRepository) *UsageHandler {
	return &UsageHandler{logs: logs, now: time.Now}
}

// Handle 은 이벤트 타입을 먼저 보고 필요한 이벤트만 디코딩한다.
// 알 수 없는 타입은 다른 서비스용이므로 무시한다.
func (h *UsageHandler) Handle(ctx context.Context, ev eventbus.Event) error {
	var peek struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(ev.Payload, &peek); err != nil {
		return fmt.Errorf("%w: event %s: %v", eventbus.ErrUndecodable, ev.ID, err)
	}
	switch events.EventType(peek.Type) {
	case events.ChatTurnCompleted:
		v, err := eventbus.DecodeJSON[events.ChatTurnCompletedEvent](ev)
		if err != nil {
			return err
		}
		return h.HandleChatTurnCompleted(ctx, &v)
	default:
		return nil
	}
}

func (h *UsageHandler) HandleChatTurnCompleted(ctx context.Context, event *events.ChatTurnCompletedEvent) error {
	var prompt, completion int64
	if event.AssistantMessage.PromptTokens != nil {
		prompt = *event.AssistantMessage.PromptTokens
	}
	if event.AssistantMessage.CompletionTokens != nil {
		completion = *event.AssistantMessage.CompletionTokens
	}

	entry := models.AILog{
		EventID:          event.ID,
		UserID:           event.UserID,
		SessionID:        event.SessionID,
		ModelName:        event.ModelName,
		ModelVersion:     event.ModelVersion,
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		DurationMs:       event.DurationMs,
		Fallback:         event.Fallback,
		ChargedCredits:   event.ChargedCredits,
		RequestedAt:      event.RequestedAt,
		CompletedAt:      event.AssistantMessage.CreatedAt,
	}
	if entry.CompletedAt.IsZero() {
		entry.CompletedAt = h.now().UTC()
	}

	if err := h.logs.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert ai log for event %s: %w", event.ID, err)
	}

	logger.InfoWithFields("AI usage recorded", logger.Fields{
		"event_id":     event.ID,
		"user_id":      event.UserID,
		"session_id":   event.SessionID,
		"model":        event.ModelName,
		"total_tokens": entry.TotalTokens,
		"duration_ms":  event.DurationMs,
		"charged":      event.ChargedCredits,
		"fallback":     event.Fallback,
	})
	return nil
}
