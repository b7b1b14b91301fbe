package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AILog stores LLM usage logs (system monitoring purpose)
// Collection: ai_logs
type AILog struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID          string             `bson:"event_id" json:"event_id"`
	UserID           string             `bson:"user_id" json:"user_id"`
	SessionID        string             `bson:"session_id" json:"session_id"`
	ModelName        string             `bson:"model_name" json:"model_name"`
	ModelVersion     string             `bson:"model_version" json:"model_version"`
	PromptTokens     int64              `bson:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int64              `bson:"completion_tokens" json:"completion_tokens"`
	TotalTokens      int64              `bson:"total_tokens" json:"total_tokens"`
	DurationMs       int64              `bson:"duration_ms" json:"duration_ms"`
	Fallback         bool               `bson:"fallback" json:"fallback"`
	ChargedCredits   int64              `bson:"charged_credits" json:"charged_credits"`
	RequestedAt      time.Time          `bson:"requested_at" json:"requested_at"`
	CompletedAt      time.Time          `bson:"completed_at" json:"completed_at"`
}
