package sqlite

import (
	"context"
	"database/sql"
	"time"

	"chatline/models"
)

type AILogRepository struct {
	db *sql.DB
}

func (r *AILogRepository) Insert(ctx context.Context, log models.AILog) error {
	if log.RequestedAt.IsZero() {
		log.RequestedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO ai_logs (event_id, user_id, session_id, model_name, model_version,
			prompt_tokens, completion_tokens, total_tokens, duration_ms, fallback, charged_credits,
			requested_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.EventID, log.UserID, log.SessionID, log.ModelName, log.ModelVersion,
		log.PromptTokens, log.CompletionTokens, log.TotalTokens, log.DurationMs, log.Fallback, log.ChargedCredits,
		toNanos(log.RequestedAt), toNanos(log.CompletedAt),
	)
	return err
}

// CountByUser 는 운영 도구용 집계이다.
func (r *AILogRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_logs WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
