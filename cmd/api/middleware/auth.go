package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/cmd/api/auth"
	"chatline/logger"
)

// TokenParser 는 access token 에서 (sub, role) 을 꺼낸다 (auth.JWTManager).
type TokenParser interface {
	Parse(token string) (string, string, error)
}

// RoleAuthorizer 는 역할 기반 액션 판단이다 (authz.Gate).
type RoleAuthorizer interface {
	Authorize(ctx context.Context, caller authz.Caller, action string) error
}

// RequireUser 는 Authorization 헤더의 JWT 를 검증하고 호출자를 컨텍스트에 저장한다.
func RequireUser(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractBearerToken(c)
		if err != nil {
			auth.AbortWithUnauthorized(c, err)
			return
		}

		userID, role, err := tokens.Parse(token)
		if err != nil {
			logger.DebugWithFields("token parse error", logger.Fields{"error": err.Error()})
			auth.AbortWithUnauthorized(c, auth.ErrInvalidToken)
			return
		}

		auth.SetCaller(c, authz.Caller{ID: userID, Role: role})
		c.Next()
	}
}

// RequireAdmin 은 RequireUser 뒤에 붙어 admin.access 정책을 확인한다.
func RequireAdmin(gate RoleAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := auth.CallerFrom(c)
		if !ok {
			auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
			return
		}

		if err := gate.Authorize(c.Request.Context(), caller, authz.ActionAdminAccess); err != nil {
			if errors.Is(err, authz.ErrForbidden) {
				logger.Log().Infof("access denied: user %s has role %s, want admin", caller.ID, caller.Role)
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			logger.Log().Errorf("admin policy evaluation failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		c.Next()
	}
}
