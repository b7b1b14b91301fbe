package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chatline/models"
	"chatline/repositories"
)

type UserRepository struct {
	db *sql.DB
}

const userColumns = `id, email, name, credential_ref, role, credits, active_org_id, created_at, updated_at`

func (r *UserRepository) Insert(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.CredentialRef, u.Role, u.Credits, u.ActiveOrgID,
		toNanos(u.CreatedAt), toNanos(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return repositories.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                models.User
		org              sql.NullString
		created, updated int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CredentialRef, &u.Role, &u.Credits, &org, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if org.Valid {
		u.ActiveOrgID = &org.String
	}
	u.CreatedAt = fromNanos(created)
	u.UpdatedAt = fromNanos(updated)
	return &u, nil
}
