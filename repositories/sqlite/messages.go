package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chatline/models"
	"chatline/repositories"
)

type MessageRepository struct {
	db *sql.DB
}

// Append 는 세션 카운터 증가와 메시지 삽입을 한 트랜잭션에서 수행한다.
func (r *MessageRepository) Append(ctx context.Context, m *models.ChatMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq, updated int64
	err = tx.QueryRowContext(ctx,
		`UPDATE chat_sessions
		    SET message_count = message_count + 1, updated_at = MAX(updated_at, ?)
		  WHERE id = ?
		RETURNING message_count, updated_at`,
		toNanos(time.Now()), m.SessionID,
	).Scan(&seq, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_messages (id, session_id, seq, role, content, prompt_tokens, completion_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SessionID, seq, string(m.Role), m.Content, m.PromptTokens, m.CompletionTokens, updated,
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.Seq = seq
	m.CreatedAt = fromNanos(updated)
	return nil
}

func (r *MessageRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, seq, role, content, prompt_tokens, completion_tokens, created_at
		   FROM chat_messages WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ChatMessage, 0)
	for rows.Next() {
		var (
			m                  models.ChatMessage
			role               string
			prompt, completion sql.NullInt64
			created            int64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Seq, &role, &m.Content, &prompt, &completion, &created); err != nil {
			return nil, err
		}
		m.Role = models.MessageRole(role)
		if prompt.Valid {
			m.PromptTokens = &prompt.Int64
		}
		if completion.Valid {
			m.CompletionTokens = &completion.Int64
		}
		m.CreatedAt = fromNanos(created)
		out = append(out, m)
	}
	return out, rows.Err()
}
