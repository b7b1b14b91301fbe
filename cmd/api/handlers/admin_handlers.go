package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/cmd/api/dto"
	"chatline/ledger"
	"chatline/logger"
	"chatline/notifications"
)

// AdminSendNotificationHandler godoc
// @Summary      알림 발송
// @Description  user_id 를 주면 해당 사용자에게, 생략하면 전체 공지로 보냅니다. 저장 후 실시간으로 전달됩니다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.SendNotificationRequest  true  "notification"
// @Success      201   {object}  models.Notification
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      403   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/notifications [post]
func AdminSendNotificationHandler(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		var req dto.SendNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		n, err := svc.Send(c.Request.Context(), caller, notifications.SendInput{
			UserID: req.UserID,
			Title:  req.Title,
			Body:   req.Body,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, n)
	}
}

// AdminGrantCreditsHandler godoc
// @Summary      크레딧 지급
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                   true  "사용자 ID"
// @Param        body  body      dto.GrantCreditsRequest  true  "grant"
// @Success      200   {object}  dto.GrantCreditsResponse
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      403   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/users/{id}/credits [post]
func AdminGrantCreditsHandler(gate *authz.Gate, l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		var req dto.GrantCreditsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		ctx := c.Request.Context()
		if err := gate.Authorize(ctx, caller, authz.ActionCreditsGrant); err != nil {
			respondError(c, err)
			return
		}

		userID := c.Param("id")
		entry, err := l.Grant(ctx, userID, req.Amount, req.Reason, map[string]any{"granted_by": caller.ID})
		if err != nil {
			respondTargetUserError(c, err)
			return
		}
		logger.InfoWithFields("credits granted", logger.Fields{
			"user_id":    userID,
			"granted_by": caller.ID,
			"amount":     entry.Delta,
			"entry_id":   entry.ID,
		})
		c.JSON(http.StatusOK, dto.GrantCreditsResponse{
			UserID:  userID,
			EntryID: entry.ID,
			Amount:  entry.Delta,
			Balance: entry.BalanceAfter,
		})
	}
}

// AdminVerifyLedgerHandler godoc
// @Summary      원장 검증
// @Description  users.credits 와 원장 delta 합계가 같은지 확인합니다.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "사용자 ID"
// @Success      200  {object}  dto.LedgerVerifyDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/users/{id}/ledger/verify [get]
func AdminVerifyLedgerHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := l.Verify(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondTargetUserError(c, err)
			return
		}
		if !rec.Consistent {
			logger.WarnWithFields("ledger drift detected", logger.Fields{
				"user_id":   rec.UserID,
				"balance":   rec.Balance,
				"entry_sum": rec.EntrySum,
			})
		}
		c.JSON(http.StatusOK, dto.LedgerVerifyDTO(rec))
	}
}
