package ledger_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/ledger"
	"chatline/models"
	"chatline/testutil"
)

func TestDebitRecordsEntry(t *testing.T) {
	store := testutil.NewStore(t)
	l := ledger.New(store.Ledger)
	ctx := context.Background()
	u := testutil.GrantUser(t, store, 15)

	ok, err := l.HasSufficientBalance(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	d, err := l.Debit(ctx, u.ID, 10, models.LedgerReasonLLMUsage, map[string]any{
		"prompt_tokens": 5, "completion_tokens": 7,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), d.Committed)
	assert.Equal(t, int64(5), d.Balance)
	assert.True(t, strings.HasPrefix(d.EntryID, ledger.EntryIDPrefix+"_"))

	ok, err = l.HasSufficientBalance(ctx, u.ID, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := l.Entries(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	var debit *models.LedgerEntry
	for i := range entries {
		if entries[i].ID == d.EntryID {
			debit = &entries[i]
		}
	}
	require.NotNil(t, debit)
	assert.Equal(t, int64(-10), debit.Delta)
	assert.Equal(t, models.LedgerReasonLLMUsage, debit.Reason)
}

func TestDebitClampsAtZero(t *testing.T) {
	store := testutil.NewStore(t)
	l := ledger.New(store.Ledger)
	ctx := context.Background()
	u := testutil.GrantUser(t, store, 4)

	d, err := l.Debit(ctx, u.ID, 10, models.LedgerReasonLLMUsage, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Committed)
	assert.Equal(t, int64(0), d.Balance)

	rec, err := l.Verify(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(0), rec.Balance)
}

func TestConcurrentDebitsKeepCounterAndEntriesInSync(t *testing.T) {
	store := testutil.NewStore(t)
	l := ledger.New(store.Ledger)
	ctx := context.Background()
	u := testutil.GrantUser(t, store, 55)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Debit(ctx, u.ID, 10, models.LedgerReasonLLMUsage, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := l.Verify(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Balance)
	assert.Equal(t, rec.Balance, rec.EntrySum)
	assert.True(t, rec.Consistent)
}

func TestGrantAndInvalidAmounts(t *testing.T) {
	store := testutil.NewStore(t)
	l := ledger.New(store.Ledger)
	ctx := context.Background()
	u := testutil.GrantUser(t, store, 0)

	entry, err := l.Grant(ctx, u.ID, 25, "", map[string]any{"note": "welcome"})
	require.NoError(t, err)
	assert.Equal(t, models.LedgerReasonAdminGrant, entry.Reason)
	assert.Equal(t, int64(25), entry.BalanceAfter)

	_, err = l.Grant(ctx, u.ID, 0, "", nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
	_, err = l.Debit(ctx, u.ID, -3, models.LedgerReasonLLMUsage, nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	balance, err := l.Balance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
}

func TestUnknownUser(t *testing.T) {
	store := testutil.NewStore(t)
	l := ledger.New(store.Ledger)
	ctx := context.Background()

	_, err := l.Debit(ctx, uuid.NewString(), 10, models.LedgerReasonLLMUsage, nil)
	assert.ErrorIs(t, err, ledger.ErrUnknownUser)

	_, err = l.Balance(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ledger.ErrUnknownUser)
}
