package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/authz"
	"chatline/chat"
	"chatline/cmd/api/dto"
	"chatline/cmd/api/trace"
	"chatline/logger"
	"chatline/models"
)

// ListSessionsHandler godoc
// @Summary      대화 세션 목록 조회
// @Description  호출자의 세션을 최근 활동순으로 조회합니다.
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.ListSessionsResponse
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Router       /chat/sessions [get]
func ListSessionsHandler(store *chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		items, err := store.ListSessions(c.Request.Context(), caller.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []models.ChatSession{}
		}
		c.JSON(http.StatusOK, dto.ListSessionsResponse{Items: items})
	}
}

// CreateSessionHandler godoc
// @Summary      대화 세션 생성
// @Description  제목을 생략하면 기본 제목으로 만들고, 첫 메시지로 제목이 정해집니다.
// @Tags         chat
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateSessionRequest  false  "session"
// @Success      201   {object}  models.ChatSession
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Router       /chat/sessions [post]
func CreateSessionHandler(store *chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		var req dto.CreateSessionRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c)
				return
			}
		}
		session, err := store.CreateSession(c.Request.Context(), caller.ID, req.Title)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, session)
	}
}

// GetSessionHandler godoc
// @Summary      대화 세션 조회
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "세션 ID (UUID)"
// @Success      200  {object}  models.ChatSession
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /chat/sessions/{id} [get]
func GetSessionHandler(gate *authz.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		sessionID := c.Param("id")
		if err := chat.ValidateSessionID(sessionID); err != nil {
			respondError(c, err)
			return
		}
		session, err := gate.AuthorizeSession(c.Request.Context(), caller, sessionID, authz.ActionSessionRead)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// ListMessagesHandler godoc
// @Summary      세션 메시지 목록
// @Description  메시지를 seq 오름차순으로 반환합니다.
// @Tags         chat
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "세션 ID (UUID)"
// @Success      200  {object}  dto.ListMessagesResponse
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /chat/sessions/{id}/messages [get]
func ListMessagesHandler(gate *authz.Gate, store *chat.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		sessionID := c.Param("id")
		if err := chat.ValidateSessionID(sessionID); err != nil {
			respondError(c, err)
			return
		}
		if _, err := gate.AuthorizeSession(c.Request.Context(), caller, sessionID, authz.ActionSessionRead); err != nil {
			respondError(c, err)
			return
		}
		items, err := store.ListMessages(c.Request.Context(), sessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []models.ChatMessage{}
		}
		c.JSON(http.StatusOK, dto.ListMessagesResponse{Items: items})
	}
}

// SubmitMessageHandler godoc
// @Summary      메시지 전송
// @Description  세션에 메시지를 보내고 응답을 받습니다. 성공하면 고정 크레딧이 차감됩니다.
// @Tags         chat
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "세션 ID (UUID)"
// @Param        body  body      dto.SubmitMessageRequest  true  "message"
// @Success      200   {object}  dto.SubmitMessageResponse
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Failure      402   {object}  dto.ErrorResponseDTO  "크레딧 부족"
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Failure      503   {object}  dto.ErrorResponseDTO
// @Failure      500   {object}  dto.ErrorResponseDTO
// @Router       /chat/sessions/{id}/messages [post]
func SubmitMessageHandler(pipeline *chat.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		sessionID := c.Param("id")
		if err := chat.ValidateSessionID(sessionID); err != nil {
			respondError(c, err)
			return
		}

		var req dto.SubmitMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}

		ctx := c.Request.Context()
		reply, err := pipeline.Submit(ctx, caller, sessionID, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}

		logger.DebugWithFields("chat turn completed", trace.Fields(ctx, logger.Fields{
			"session_id": sessionID,
			"charged":    reply.Charged,
			"balance":    reply.RemainingBalance,
			"title":      reply.SessionTitle,
		}))
		c.JSON(http.StatusOK, dto.SubmitMessageResponse{
			Content: reply.AssistantText,
			Credits: reply.RemainingBalance,
			Charged: reply.Charged,
			Title:   reply.SessionTitle,
		})
	}
}
