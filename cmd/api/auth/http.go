package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatline/authz"
)

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
	ErrInvalidToken  = errors.New("invalid_token")
)

const callerKey = "chatline.caller"

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

// AbortWithUnauthorized 는 401 과 함께 공통 오류 코드 unauthorized 를 내려준다.
// detail 에는 어떤 단계에서 실패했는지가 들어간다.
func AbortWithUnauthorized(c *gin.Context, err error) {
	body := gin.H{"error": "unauthorized"}
	if err != nil {
		body["detail"] = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}

func SetCaller(c *gin.Context, caller authz.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom 은 인증 미들웨어가 저장한 호출자를 꺼낸다.
func CallerFrom(c *gin.Context) (authz.Caller, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return authz.Caller{}, false
	}
	caller, ok := v.(authz.Caller)
	return caller, ok && caller.ID != ""
}
