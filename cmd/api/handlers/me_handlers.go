package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatline/cmd/api/dto"
	"chatline/ledger"
	"chatline/models"
	"chatline/repositories"
)

// recentEntries 는 /credits 에서 보여 줄 최근 원장 엔트리 수이다.
const recentEntries = 20

// MeHandler godoc
// @Summary      내 프로필
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.UserProfileDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /me [get]
func MeHandler(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		u, err := users.FindByID(c.Request.Context(), caller.ID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				c.JSON(http.StatusNotFound, dto.ErrorResponseDTO{Error: "not_found"})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewUserProfileDTO(u))
	}
}

// CreditsHandler godoc
// @Summary      크레딧 잔액과 최근 내역
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  dto.CreditsDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /credits [get]
func CreditsHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := requireCaller(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		balance, err := l.Balance(ctx, caller.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		entries, err := l.Entries(ctx, caller.ID, recentEntries)
		if err != nil {
			respondError(c, err)
			return
		}
		if entries == nil {
			entries = []models.LedgerEntry{}
		}
		c.JSON(http.StatusOK, dto.CreditsDTO{Balance: balance, Entries: entries})
	}
}
