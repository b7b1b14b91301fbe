package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/cmd/api/dto"
	"chatline/notifications"
)

// ListNotificationsHandler godoc
// @Summary      알림 목록
// @Description  나에게 온 알림과 전체 공지를 최신순으로 최대 100건 반환합니다.
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.ListNotificationsResponse
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /notifications [get]
func ListNotificationsHandler(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		items, err := svc.List(c.Request.Context(), caller.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ListNotificationsResponse{Items: items})
	}
}

// MarkNotificationReadHandler godoc
// @Summary      알림 읽음 처리
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "알림 ID"
// @Success      200  {object}  dto.MessageResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /notifications/{id}/read [post]
func MarkNotificationReadHandler(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		if err := svc.MarkRead(c.Request.Context(), caller.ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "ok"})
	}
}

// MarkAllNotificationsReadHandler godoc
// @Summary      알림 모두 읽음 처리
// @Description  나에게 온 알림만 읽음 처리합니다. 전체 공지는 건드리지 않습니다.
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.MarkAllReadResponse
// @Router       /notifications/read-all [post]
func MarkAllNotificationsReadHandler(svc *notifications.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		n, err := svc.MarkAllRead(c.Request.Context(), caller.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.MarkAllReadResponse{Updated: n})
	}
}
