package handlers

import (
	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/cmd/api/auth"
)

// requireCaller 는 인증 미들웨어가 저장한 호출자를 꺼낸다. 없으면 401 을 쓰고 false.
func requireCaller(c *gin.Context) (authz.Caller, bool) {
	caller, ok := auth.CallerFrom(c)
	if !ok {
		auth.AbortWithUnauthorized(c, auth.ErrMissingHeader)
		return authz.Caller{}, false
	}
	return caller, true
}
