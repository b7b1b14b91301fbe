package models

import "time"

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == MessageRoleUser || r == MessageRoleAssistant
}

// TokenUsage 는 assistant 메시지에만 기록되는 토큰 사용량이다.
type TokenUsage struct {
	PromptTokens     int64 `bson:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int64 `bson:"completion_tokens" json:"completion_tokens"`
}

// ChatMessage 는 세션의 메시지 로그 한 줄이다.
// 세션 안에서 Seq 오름차순이 곧 생성 순서이며 CreatedAt 도 감소하지 않는다.
// Collection: chat_messages
type ChatMessage struct {
	ID               string      `bson:"_id" json:"id"`
	SessionID        string      `bson:"session_id" json:"session_id"`
	Seq              int64       `bson:"seq" json:"seq"`
	Role             MessageRole `bson:"role" json:"role"`
	Content          string      `bson:"content" json:"content"`
	PromptTokens     *int64      `bson:"prompt_tokens,omitempty" json:"prompt_tokens,omitempty"`
	CompletionTokens *int64      `bson:"completion_tokens,omitempty" json:"completion_tokens,omitempty"`
	CreatedAt        time.Time   `bson:"created_at" json:"created_at"`
}

// Usage 는 토큰 정보가 있으면 TokenUsage 로 묶어 반환한다.
func (m ChatMessage) Usage() *TokenUsage {
	if m.PromptTokens == nil && m.CompletionTokens == nil {
		return nil
	}
	u := &TokenUsage{}
	if m.PromptTokens != nil {
		u.PromptTokens = *m.PromptTokens
	}
	if m.CompletionTokens != nil {
		u.CompletionTokens = *m.CompletionTokens
	}
	return u
}
