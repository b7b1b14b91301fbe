package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/chat"
	"chatline/cmd/api/dto"
	"chatline/cmd/api/trace"
	"chatline/ledger"
	"chatline/logger"
	"chatline/notifications"
)

// normalizeError 는 도메인 오류를 HTTP 상태와 오류 코드로 바꾼다.
func normalizeError(err error) (status int, errorCode string) {
	switch {
	case errors.Is(err, chat.ErrInvalidSessionID):
		return http.StatusBadRequest, "invalid_session_id"
	case errors.Is(err, chat.ErrInvalidInput),
		errors.Is(err, notifications.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, chat.ErrSessionNotFound),
		errors.Is(err, authz.ErrNotFound),
		errors.Is(err, notifications.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, chat.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, chat.ErrGenerationFailed):
		return http.StatusServiceUnavailable, "generation_failed"
	case errors.Is(err, authz.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError 는 오류 응답을 쓰고, 서버 쪽 오류만 로그로 남긴다.
func respondError(c *gin.Context, err error) {
	status, code := normalizeError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields("request failed", trace.Fields(c.Request.Context(), logger.Fields{
			"path":  c.FullPath(),
			"code":  code,
			"error": err.Error(),
		}))
	}
	_ = c.Error(err)
	c.JSON(status, dto.ErrorResponseDTO{Error: code})
}

// respondTargetUserError 는 관리자가 경로로 지정한 사용자가 없을 때만 404 로 바꾼다.
// 그 밖의 경로에서 ledger.ErrUnknownUser 는 인증된 사용자와 원장이 어긋난 정합성 오류(500)이다.
func respondTargetUserError(c *gin.Context, err error) {
	if errors.Is(err, ledger.ErrUnknownUser) {
		c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found"})
		return
	}
	respondError(c, err)
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
}
