package sqlite

import (
	"context"
	"database/sql"

	"chatline/models"
	"chatline/repositories"
)

type NotificationRepository struct {
	db *sql.DB
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, title, body, seen, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Title, n.Body, n.Seen, toNanos(n.CreatedAt),
	)
	return err
}

func (r *NotificationRepository) ListVisibleTo(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, body, seen, created_at
		   FROM notifications
		  WHERE user_id IS NULL OR user_id = ?
		  ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Notification, 0)
	for rows.Next() {
		var (
			n       models.Notification
			owner   sql.NullString
			created int64
		)
		if err := rows.Scan(&n.ID, &owner, &n.Title, &n.Body, &n.Seen, &created); err != nil {
			return nil, err
		}
		if owner.Valid {
			n.UserID = &owner.String
		}
		n.CreatedAt = fromNanos(created)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkSeen(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET seen = 1 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllSeen(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET seen = 1 WHERE user_id = ? AND seen = 0`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
