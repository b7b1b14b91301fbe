package dto

import "chatline/models"

// CreditsDTO는 /api/v1/credits 응답 스키마를 나타낸다.
type CreditsDTO struct {
	Balance int64                `json:"balance" example:"5"`
	Entries []models.LedgerEntry `json:"entries"`
}

// GrantCreditsRequest는 관리자 크레딧 부여 요청 스키마를 나타낸다.
type GrantCreditsRequest struct {
	Amount int64  `json:"amount" binding:"required,min=1" example:"100"`
	Reason string `json:"reason" example:"admin_grant"`
}

type GrantCreditsResponse struct {
	UserID  string `json:"user_id"`
	EntryID string `json:"entry_id" example:"lent_01h455vb4pex5vsknk084sn02q"`
	Amount  int64  `json:"amount" example:"100"`
	Balance int64  `json:"balance" example:"115"`
}

// LedgerVerifyDTO 는 카운터와 원장 합계 비교 결과이다.
type LedgerVerifyDTO struct {
	UserID     string `json:"user_id"`
	Balance    int64  `json:"balance"`
	EntrySum   int64  `json:"entry_sum"`
	Consistent bool   `json:"consistent"`
}
