package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"chatline/db"
	"chatline/models"
	"chatline/repositories"
	"chatline/repositories/sqlite"
)

// NewStore creates an in-memory SQLite store for testing
func NewStore(t *testing.T) repositories.Store {
	t.Helper()
	conn, err := db.OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return sqlite.NewStore(conn)
}

// SeedUser inserts a user holding the given credits.
// 초기 잔액은 원장 엔트리 없이 카운터만 채우므로, 원장 합계 검증이 필요한 테스트는 GrantUser 를 사용한다.
func SeedUser(t *testing.T, store repositories.Store, role string, credits int64) *models.User {
	t.Helper()
	id := uuid.NewString()
	u := &models.User{
		ID:      id,
		Email:   id + "@example.com",
		Name:    "tester",
		Role:    role,
		Credits: credits,
	}
	if err := store.Users.Insert(context.Background(), u); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return u
}

// GrantUser inserts a user with zero credits and grants credits through the ledger.
func GrantUser(t *testing.T, store repositories.Store, credits int64) *models.User {
	t.Helper()
	u := SeedUser(t, store, models.RoleUser, 0)
	if credits == 0 {
		return u
	}
	entry := &models.LedgerEntry{
		ID:     uuid.NewString(),
		UserID: u.ID,
		Delta:  credits,
		Reason: models.LedgerReasonAdminGrant,
	}
	if err := store.Ledger.Apply(context.Background(), entry, false); err != nil {
		t.Fatalf("Failed to grant credits: %v", err)
	}
	u.Credits = credits
	return u
}
