package events

import (
	"time"

	"github.com/google/uuid"

	"chatline/models"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	ChatTurnCompleted   EventType = "chat.turn_completed"
	NotificationCreated EventType = "notification.created"
)

const eventVersion = "1"

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "chatctl" 등
	Version   string    `json:"version"`
}

func (e BaseEvent) GetType() EventType {
	return e.Type
}

func newBase(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// ChatTurnCompletedEvent 는 user/assistant 턴 한 쌍이 저장되고 과금까지 끝났을 때 발행된다.
type ChatTurnCompletedEvent struct {
	BaseEvent
	UserID           string             `json:"user_id"`
	SessionID        string             `json:"session_id"`
	SessionTitle     string             `json:"session_title"`
	UserMessage      models.ChatMessage `json:"user_message"`
	AssistantMessage models.ChatMessage `json:"assistant_message"`
	ChargedCredits   int64              `json:"charged_credits"`
	Balance          int64              `json:"balance"`
	ModelName        string             `json:"model_name"`
	ModelVersion     string             `json:"model_version"`
	DurationMs       int64              `json:"duration_ms"`
	Fallback         bool               `json:"fallback"`
	RequestedAt      time.Time          `json:"requested_at"`
}

func NewChatTurnCompletedEvent(source string) ChatTurnCompletedEvent {
	return ChatTurnCompletedEvent{BaseEvent: newBase(ChatTurnCompleted, source)}
}

// NotificationCreatedEvent 는 알림이 저장된 직후 발행된다. UserID 가 nil 이면 전체 공지이다.
type NotificationCreatedEvent struct {
	BaseEvent
	Notification models.Notification `json:"notification"`
}

func NewNotificationCreatedEvent(source string, n models.Notification) NotificationCreatedEvent {
	return NotificationCreatedEvent{BaseEvent: newBase(NotificationCreated, source), Notification: n}
}
