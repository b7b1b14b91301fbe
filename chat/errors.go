package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput 은 상태 변경 전에 거부되는 입력 오류의 공통 부모이다.
	ErrInvalidInput     = errors.New("chat: invalid input")
	ErrInvalidSessionID = fmt.Errorf("%w: invalid session id", ErrInvalidInput)
	ErrEmptyContent     = fmt.Errorf("%w: content is empty", ErrInvalidInput)
	ErrContentTooLong   = fmt.Errorf("%w: content is too long", ErrInvalidInput)
	ErrInvalidRole      = fmt.Errorf("%w: invalid message role", ErrInvalidInput)

	// ErrSessionNotFound 는 세션이 없거나 호출자 소유가 아닐 때 반환된다.
	ErrSessionNotFound     = errors.New("chat: session not found")
	ErrInsufficientCredits = errors.New("chat: insufficient credits")
	// ErrGenerationFailed 는 응답 생성 실패이다. 사용자 메시지는 남고 과금은 없다.
	ErrGenerationFailed = errors.New("chat: generation failed")
)
