package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/usecase"
)

type AccountHandler struct {
	accountUsecase *usecase.AccountUsecase
	logger         *slog.Logger
}

func NewAccountHandler(accountUsecase *usecase.AccountUsecase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase, logger: logger.With("component", "account_handler")}
}

type accountResponse struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	PlanType         domain.PlanType `json:"plan_type"`
	RemainingMinutes float64         `json:"remaining_minutes"`
	AvailableCredit  float64         `json:"available_credit"`
	HasBalance       bool            `json:"has_balance"`
}

func (h *AccountHandler) GetByID(ctx *gin.Context) {
	accountID := ctx.Param("id")

	account, err := h.accountUsecase.GetByID(ctx.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errAccountNotFound})
			return
		}
		h.logger.Error("get account by id", "account_id", accountID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, accountResponse{
		ID:               account.ID,
		Name:             account.Name,
		PlanType:         account.PlanType,
		RemainingMinutes: account.RemainingMinutes,
		AvailableCredit:  account.AvailableCredit,
		HasBalance:       account.HasBalance(),
	})
}
