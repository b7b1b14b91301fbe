package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"chatline/models"
	"chatline/repositories"
)

type LedgerRepository struct {
	db *sql.DB
}

func (r *LedgerRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var credits int64
	err := r.db.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, userID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repositories.ErrUnknownUser
	}
	return credits, err
}

func (r *LedgerRepository) Apply(ctx context.Context, entry *models.LedgerEntry, floorAtZero bool) error {
	var meta []byte
	if len(entry.Meta) > 0 {
		b, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		meta = b
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var credits int64
	err = tx.QueryRowContext(ctx, `SELECT credits FROM users WHERE id = ?`, entry.UserID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return repositories.ErrUnknownUser
	}
	if err != nil {
		return err
	}

	delta := entry.Delta
	if floorAtZero && credits+delta < 0 {
		delta = -credits
		if delta > 0 {
			delta = 0
		}
	}
	now := time.Now().UTC()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?`,
		delta, toNanos(now), entry.UserID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO credit_ledger (id, user_id, delta, reason, meta, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, delta, entry.Reason, meta, credits+delta, toNanos(now),
	); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	entry.Delta = delta
	entry.BalanceAfter = credits + delta
	entry.CreatedAt = now
	return nil
}

func (r *LedgerRepository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM credit_ledger WHERE user_id = ?`, userID).Scan(&total)
	return total, err
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, delta, reason, meta, balance_after, created_at
		   FROM credit_ledger WHERE user_id = ?
		  ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.LedgerEntry, 0)
	for rows.Next() {
		var (
			e       models.LedgerEntry
			meta    []byte
			created int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Delta, &e.Reason, &meta, &e.BalanceAfter, &created); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, err
			}
		}
		e.CreatedAt = fromNanos(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
