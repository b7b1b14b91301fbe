package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 는 인증/가입 서비스가 관리하는 사용자 문서이다.
// 이 서비스는 credits 필드만 원장(ledger)을 통해 갱신한다.
// Collection: users
type User struct {
	ID            string    `bson:"_id" json:"id"`
	Email         string    `bson:"email" json:"email"`
	Name          string    `bson:"name" json:"name"`
	CredentialRef string    `bson:"credential_ref" json:"-"`
	Role          string    `bson:"role" json:"role"`
	Credits       int64     `bson:"credits" json:"credits"`
	ActiveOrgID   *string   `bson:"active_org_id,omitempty" json:"active_org_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
