package dto

import (
	"time"

	"chatline/models"
)

// UserProfileDTO는 /api/v1/me 응답 스키마를 나타낸다. credential_ref 는 내려주지 않는다.
type UserProfileDTO struct {
	ID          string    `json:"id" example:"2b1c3d4e-0000-4000-8000-000000000001"`
	Email       string    `json:"email" example:"user@example.com"`
	Name        string    `json:"name" example:"홍길동"`
	Role        string    `json:"role" example:"user"`
	ActiveOrgID *string   `json:"active_org_id,omitempty"`
	Credits     int64     `json:"credits" example:"15"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewUserProfileDTO(u *models.User) UserProfileDTO {
	return UserProfileDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		ActiveOrgID: u.ActiveOrgID,
		Credits:     u.Credits,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
