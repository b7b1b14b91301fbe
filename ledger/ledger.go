// Package ledger 는 사용자 크레딧 잔액과 불변 원장 엔트리를 관리한다.
//
// 잔액 카운터(users.credits)와 엔트리 delta 합계는 항상 같아야 하며,
// 모든 변경은 리포지토리의 Apply 한 번(카운터 갱신 + 엔트리 추가)으로만 일어난다.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"

	"chatline/models"
	"chatline/repositories"
)

// EntryIDPrefix 는 원장 엔트리 TypeID 접두사이다.
const EntryIDPrefix = "lent"

var (
	ErrUnknownUser   = errors.New("ledger: unknown user")
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

// Debit 은 차감 결과이다. Committed 는 실제로 빠져나간 크레딧(0 이상)이다.
type Debit struct {
	Committed int64
	Balance   int64
	EntryID   string
}

// Reconciliation 은 카운터와 원장 합계 비교 결과이다.
type Reconciliation struct {
	UserID     string `json:"user_id"`
	Balance    int64  `json:"balance"`
	EntrySum   int64  `json:"entry_sum"`
	Consistent bool   `json:"consistent"`
}

type Ledger struct {
	repo repositories.LedgerRepository
}

func New(repo repositories.LedgerRepository) *Ledger {
	return &Ledger{repo: repo}
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int64, error) {
	b, err := l.repo.Balance(ctx, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return b, nil
}

// HasSufficientBalance 는 잠금 없이 현재 잔액만 읽는다.
// 동시에 진행 중인 차감이 있으면 결과가 이미 낡았을 수 있다.
func (l *Ledger) HasSufficientBalance(ctx context.Context, userID string, cost int64) (bool, error) {
	b, err := l.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return b >= cost, nil
}

// Debit 은 cost 만큼 잔액을 줄이고 엔트리 하나를 남긴다.
// 잔액이 cost 보다 작아진 경우(확인과 차감 사이의 경쟁) 잔액을 0 까지만 줄이고
// 실제 차감액을 엔트리에 기록한다.
func (l *Ledger) Debit(ctx context.Context, userID string, cost int64, reason string, meta map[string]any) (Debit, error) {
	if cost <= 0 {
		return Debit{}, ErrInvalidAmount
	}
	entry, err := l.apply(ctx, userID, -cost, reason, meta, true)
	if err != nil {
		return Debit{}, err
	}
	return Debit{
		Committed: -entry.Delta,
		Balance:   entry.BalanceAfter,
		EntryID:   entry.ID,
	}, nil
}

// Grant 는 관리자 지급 등 양수 변경을 기록한다.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int64, reason string, meta map[string]any) (*models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		reason = models.LedgerReasonAdminGrant
	}
	return l.apply(ctx, userID, amount, reason, meta, false)
}

func (l *Ledger) Entries(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	entries, err := l.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return entries, nil
}

// Verify 는 카운터와 엔트리 합계를 비교한다.
func (l *Ledger) Verify(ctx context.Context, userID string) (Reconciliation, error) {
	balance, err := l.Balance(ctx, userID)
	if err != nil {
		return Reconciliation{}, err
	}
	sum, err := l.repo.SumDeltas(ctx, userID)
	if err != nil {
		return Reconciliation{}, mapErr(err)
	}
	return Reconciliation{
		UserID:     userID,
		Balance:    balance,
		EntrySum:   sum,
		Consistent: balance == sum,
	}, nil
}

func (l *Ledger) apply(ctx context.Context, userID string, delta int64, reason string, meta map[string]any, floor bool) (*models.LedgerEntry, error) {
	id, err := NewEntryID()
	if err != nil {
		return nil, err
	}
	entry := &models.LedgerEntry{
		ID:     id,
		UserID: userID,
		Delta:  delta,
		Reason: reason,
		Meta:   meta,
	}
	if err := l.repo.Apply(ctx, entry, floor); err != nil {
		return nil, mapErr(err)
	}
	return entry, nil
}

// NewEntryID 는 "lent_..." 형식의 정렬 가능한 ID 를 만든다.
func NewEntryID() (string, error) {
	tid, err := typeid.Generate(EntryIDPrefix)
	if err != nil {
		return "", fmt.Errorf("ledger: generate entry id: %w", err)
	}
	return tid.String(), nil
}

func mapErr(err error) error {
	if errors.Is(err, repositories.ErrUnknownUser) {
		return fmt.Errorf("%w: %v", ErrUnknownUser, err)
	}
	return err
}
