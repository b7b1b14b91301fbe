package models

import "time"

const (
	LedgerReasonLLMUsage   = "llm_usage"
	LedgerReasonAdminGrant = "admin_grant"
)

// LedgerEntry 는 크레딧 잔액 변경 1건을 기록하는 불변 엔트리이다.
// 사용자의 users.credits 는 항상 해당 사용자 엔트리 delta 의 합과 같아야 한다.
// Collection: credit_ledger
type LedgerEntry struct {
	ID           string         `bson:"_id" json:"id"`
	UserID       string         `bson:"user_id" json:"user_id"`
	Delta        int64          `bson:"delta" json:"delta"`
	Reason       string         `bson:"reason" json:"reason"`
	Meta         map[string]any `bson:"meta,omitempty" json:"meta,omitempty"`
	BalanceAfter int64          `bson:"balance_after" json:"balance_after"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
}
