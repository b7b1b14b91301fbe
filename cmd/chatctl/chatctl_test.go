package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/cmd/api/auth"
	"chatline/eventbus"
	"chatline/ledger"
	"chatline/models"
	"chatline/notifications"
	"chatline/repositories"
	"chatline/testutil"
)

const testSecret = "chatctl-test-secret"

// newTestApp 은 하나의 in-memory 스토어를 모든 명령이 공유하도록 한다.
func newTestApp(t *testing.T) (*app, repositories.Store) {
	t.Helper()
	store := testutil.NewStore(t)
	shared := store
	shared.Close = nil
	a := &app{
		openStore: func(ctx context.Context) (repositories.Store, error) { return shared, nil },
		openBus:   func() (eventbus.EventBus, error) { return nil, nil },
		newTokens: func() (*auth.JWTManager, error) {
			return auth.NewJWTManager(testSecret, "chatline", time.Hour)
		},
	}
	return a, store
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersCreateWithStartingCredits(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()

	out, err := run(t, a, "users", "create", "--email", "alice@example.com", "--name", "Alice", "--credits", "25")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user")

	u, err := store.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.Contains(t, out, u.ID)

	rec, err := ledger.New(store.Ledger).Verify(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), rec.Balance)
	assert.True(t, rec.Consistent)

	_, err = run(t, a, "users", "create", "--email", "alice@example.com")
	assert.ErrorContains(t, err, "already exists")
}

func TestUsersCreateValidation(t *testing.T) {
	a, _ := newTestApp(t)

	_, err := run(t, a, "users", "create")
	assert.ErrorContains(t, err, "--email is required")

	_, err = run(t, a, "users", "create", "--email", "x@example.com", "--role", "root")
	assert.ErrorContains(t, err, "invalid role")
}

func TestTokenIssueCarriesStoredRole(t *testing.T) {
	a, store := newTestApp(t)
	admin := testutil.SeedUser(t, store, models.RoleAdmin, 0)

	out, err := run(t, a, "token", "issue", admin.ID)
	require.NoError(t, err)

	tokens, err := auth.NewJWTManager(testSecret, "chatline", time.Hour)
	require.NoError(t, err)
	id, err := tokens.Authenticate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, admin.ID, id.UserID)
	assert.Equal(t, models.RoleAdmin, id.Role)

	_, err = run(t, a, "token", "issue", "missing-user")
	assert.ErrorContains(t, err, "not found")
}

func TestCreditsGrantBalanceVerify(t *testing.T) {
	a, store := newTestApp(t)
	u := testutil.GrantUser(t, store, 5)

	out, err := run(t, a, "credits", "grant", u.ID, "10", "--note", "welcome")
	require.NoError(t, err)
	assert.Contains(t, out, "Granted")
	assert.Contains(t, out, "15")

	out, err = run(t, a, "credits", "balance", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Balance:")
	assert.Contains(t, out, models.LedgerReasonAdminGrant)

	out, err = run(t, a, "credits", "verify", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "balance=15 entry_sum=15")
	assert.Contains(t, out, "OK")
}

func TestCreditsGrantRejectsBadInput(t *testing.T) {
	a, _ := newTestApp(t)

	_, err := run(t, a, "credits", "grant", "someone", "0")
	assert.ErrorContains(t, err, "invalid amount")

	_, err = run(t, a, "credits", "grant", "someone", "ten")
	assert.ErrorContains(t, err, "invalid amount")

	_, err = run(t, a, "credits", "grant", "missing-user", "10")
	assert.ErrorIs(t, err, ledger.ErrUnknownUser)
}

func TestCreditsVerifyReportsMismatch(t *testing.T) {
	a, store := newTestApp(t)
	// 카운터만 채워진 사용자: 원장 엔트리가 없다.
	u := testutil.SeedUser(t, store, models.RoleUser, 10)

	out, err := run(t, a, "credits", "verify", u.ID)
	assert.ErrorIs(t, err, ErrLedgerMismatch)
	assert.Contains(t, out, "MISMATCH")
}

func TestNotifySend(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, models.RoleUser, 0)

	out, err := run(t, a, "notify", "send", "--title", "Maintenance", "--body", "Tonight 22:00")
	require.NoError(t, err)
	assert.Contains(t, out, "broadcast")

	out, err = run(t, a, "notify", "send", "--user", u.ID, "--title", "Welcome", "--body", "Hi")
	require.NoError(t, err)
	assert.Contains(t, out, u.ID)

	list, err := store.Notifications.ListVisibleTo(ctx, u.ID, notifications.ListLimit)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Welcome", list[0].Title)
	assert.True(t, list[1].IsBroadcast())

	_, err = run(t, a, "notify", "send", "--title", "x")
	assert.ErrorIs(t, err, notifications.ErrInvalidInput)

	_, err = run(t, a, "notify", "send", "--user", "missing-user", "--title", "x", "--body", "y")
	assert.ErrorIs(t, err, notifications.ErrNotFound)
}

func TestSessionsList(t *testing.T) {
	a, store := newTestApp(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, models.RoleUser, 0)

	out, err := run(t, a, "sessions", "list", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	now := time.Now().UTC()
	for i, title := range []string{"older", "newer"} {
		require.NoError(t, store.Sessions.Insert(ctx, &models.ChatSession{
			ID:        "s" + strings.Repeat("0", 7) + string(rune('a'+i)),
			UserID:    u.ID,
			Title:     title,
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
			UpdatedAt: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	out, err = run(t, a, "sessions", "list", u.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions (2)")
	assert.Less(t, strings.Index(out, "newer"), strings.Index(out, "older"))

	out, err = run(t, a, "sessions", "list", u.ID, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "newer")
	assert.NotContains(t, out, "older")
}
