package sqlite_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/models"
	"chatline/repositories"
	"chatline/testutil"
)

func newSession(t *testing.T, store repositories.Store, owner string) *models.ChatSession {
	t.Helper()
	now := time.Now().UTC()
	s := &models.ChatSession{
		ID:        uuid.NewString(),
		UserID:    owner,
		Title:     "New Chat",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, store.Sessions.Insert(context.Background(), s))
	return s
}

func TestUserInsertAndFind(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()

	u := testutil.SeedUser(t, store, models.RoleAdmin, 30)

	got, err := store.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, int64(30), got.Credits)
	assert.Nil(t, got.ActiveOrgID)

	byEmail, err := store.Users.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = store.Users.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	dup := *u
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.Users.Insert(ctx, &dup), repositories.ErrAlreadyExists)
}

func TestSessionOwnershipAndOrdering(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, store, models.RoleUser, 0)
	bob := testutil.SeedUser(t, store, models.RoleUser, 0)

	first := newSession(t, store, alice.ID)
	second := newSession(t, store, alice.ID)
	newSession(t, store, bob.ID)

	_, err := store.Sessions.FindByIDAndOwner(ctx, first.ID, bob.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// first 에 메시지를 추가하면 updated_at 이 올라가 목록 맨 앞으로 온다.
	require.NoError(t, store.Messages.Append(ctx, &models.ChatMessage{
		ID: uuid.NewString(), SessionID: first.ID, Role: models.MessageRoleUser, Content: "hi",
	}))

	list, err := store.Sessions.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, int64(1), list[0].MessageCount)

	empty, err := store.Sessions.ListByOwner(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSetTitleOnce(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, models.RoleUser, 0)
	s := newSession(t, store, u.ID)

	changed, err := store.Sessions.SetTitleOnce(ctx, s.ID, "hello world", time.Now())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.Sessions.SetTitleOnce(ctx, s.ID, "second", time.Now())
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := store.Sessions.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Title)
	assert.True(t, got.TitleSet)
}

func TestMessageAppendAssignsSequence(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, models.RoleUser, 0)
	s := newSession(t, store, u.ID)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Messages.Append(ctx, &models.ChatMessage{
				ID:        uuid.NewString(),
				SessionID: s.ID,
				Role:      models.MessageRoleUser,
				Content:   fmt.Sprintf("m%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs, err := store.Messages.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, n)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Seq)
		if i > 0 {
			assert.False(t, m.CreatedAt.Before(msgs[i-1].CreatedAt))
		}
	}

	err = store.Messages.Append(ctx, &models.ChatMessage{
		ID: uuid.NewString(), SessionID: uuid.NewString(), Role: models.MessageRoleUser, Content: "x",
	})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestMessageTokenUsageRoundTrip(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, models.RoleUser, 0)
	s := newSession(t, store, u.ID)

	prompt, completion := int64(12), int64(34)
	require.NoError(t, store.Messages.Append(ctx, &models.ChatMessage{
		ID: uuid.NewString(), SessionID: s.ID, Role: models.MessageRoleAssistant, Content: "reply",
		PromptTokens: &prompt, CompletionTokens: &completion,
	}))

	msgs, err := store.Messages.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].Usage())
	assert.Equal(t, models.TokenUsage{PromptTokens: 12, CompletionTokens: 34}, *msgs[0].Usage())
}

func TestLedgerApplyFloorsAtZero(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	u := testutil.GrantUser(t, store, 15)

	debit := &models.LedgerEntry{
		ID: uuid.NewString(), UserID: u.ID, Delta: -10, Reason: models.LedgerReasonLLMUsage,
		Meta: map[string]any{"promptTokens": 3},
	}
	require.NoError(t, store.Ledger.Apply(ctx, debit, true))
	assert.Equal(t, int64(-10), debit.Delta)
	assert.Equal(t, int64(5), debit.BalanceAfter)

	clamped := &models.LedgerEntry{ID: uuid.NewString(), UserID: u.ID, Delta: -10, Reason: models.LedgerReasonLLMUsage}
	require.NoError(t, store.Ledger.Apply(ctx, clamped, true))
	assert.Equal(t, int64(-5), clamped.Delta)
	assert.Equal(t, int64(0), clamped.BalanceAfter)

	balance, err := store.Ledger.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	sum, err := store.Ledger.SumDeltas(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, sum)

	entries, err := store.Ledger.ListByUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	var withMeta int
	for _, e := range entries {
		if e.Meta != nil {
			withMeta++
			assert.EqualValues(t, 3, e.Meta["promptTokens"])
		}
	}
	assert.Equal(t, 1, withMeta)

	err = store.Ledger.Apply(ctx, &models.LedgerEntry{ID: uuid.NewString(), UserID: uuid.NewString(), Delta: -1}, true)
	assert.ErrorIs(t, err, repositories.ErrUnknownUser)
}

func TestNotificationVisibility(t *testing.T) {
	store := testutil.NewStore(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, store, models.RoleUser, 0)
	bob := testutil.SeedUser(t, store, models.RoleUser, 0)

	base := time.Now().UTC()
	insert := func(owner *string, title string, offset time.Duration) *models.Notification {
		n := &models.Notification{
			ID: uuid.NewString(), UserID: owner, Title: title, Body: "b", CreatedAt: base.Add(offset),
		}
		require.NoError(t, store.Notifications.Insert(ctx, n))
		return n
	}
	broadcast := insert(nil, "all", 0)
	insert(&alice.ID, "alice-1", time.Second)
	forBob := insert(&bob.ID, "bob-1", 2*time.Second)

	list, err := store.Notifications.ListVisibleTo(ctx, alice.ID, 100)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice-1", list[0].Title)
	assert.True(t, list[1].IsBroadcast())

	assert.ErrorIs(t, store.Notifications.MarkSeen(ctx, forBob.ID, alice.ID), repositories.ErrNotFound)
	require.NoError(t, store.Notifications.MarkSeen(ctx, broadcast.ID, alice.ID))

	n, err := store.Notifications.MarkAllSeen(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err = store.Notifications.ListVisibleTo(ctx, alice.ID, 100)
	require.NoError(t, err)
	for _, item := range list {
		assert.True(t, item.Seen)
	}
}
