package chat

import (
	"github.com/google/uuid"
)

// ValidateSessionID 는 하이픈 포함 36자 UUID 만 허용한다.
// uuid.Parse 가 받아들이는 urn:/중괄호/하이픈 없는 형식은 거부한다.
func ValidateSessionID(id string) error {
	if len(id) != 36 {
		return ErrInvalidSessionID
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidSessionID
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}
