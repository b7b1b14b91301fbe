package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chatline/models"
	"chatline/repositories"
)

type SessionRepository struct {
	db *sql.DB
}

const sessionColumns = `id, user_id, title, title_set, message_count, created_at, updated_at`

func (r *SessionRepository) Insert(ctx context.Context, s *models.ChatSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.Title, s.TitleSet, s.MessageCount, toNanos(s.CreatedAt), toNanos(s.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return repositories.ErrAlreadyExists
	}
	return err
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ChatSession, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = ?`, id))
}

func (r *SessionRepository) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*models.ChatSession, error) {
	return scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = ? AND user_id = ?`, id, ownerID))
}

func (r *SessionRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.ChatSession, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.ChatSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) SetTitleOnce(ctx context.Context, id, title string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET title = ?, title_set = 1, updated_at = MAX(updated_at, ?) WHERE id = ? AND title_set = 0`,
		title, toNanos(at), id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanSession(row rowScanner) (*models.ChatSession, error) {
	var (
		s                models.ChatSession
		created, updated int64
	)
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.TitleSet, &s.MessageCount, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.CreatedAt = fromNanos(created)
	s.UpdatedAt = fromNanos(updated)
	return &s, nil
}
