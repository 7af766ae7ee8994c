package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/usecase"
)

type BatchHandler struct {
	batchUsecase *usecase.BatchUsecase
	logger       *slog.Logger
}

func NewBatchHandler(batchUsecase *usecase.BatchUsecase, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{batchUsecase: batchUsecase, logger: logger.With("component", "batch_handler")}
}

type batchResponse struct {
	ID            string              `json:"id"`
	AccountID     string              `json:"account_id"`
	Name          string              `json:"name"`
	IsActive      bool                `json:"is_active"`
	CallSettings  domain.CallSettings `json:"call_settings"`
	TotalJobs     int                 `json:"total_jobs"`
	CompletedJobs int                 `json:"completed_jobs"`
	FailedJobs    int                 `json:"failed_jobs"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func toBatchResponse(batch *domain.Batch) batchResponse {
	return batchResponse{
		ID:            batch.ID,
		AccountID:     batch.AccountID,
		Name:          batch.Name,
		IsActive:      batch.IsActive,
		CallSettings:  batch.CallSettings,
		TotalJobs:     batch.TotalJobs,
		CompletedJobs: batch.CompletedJobs,
		FailedJobs:    batch.FailedJobs,
		CreatedAt:     batch.CreatedAt,
		UpdatedAt:     batch.UpdatedAt,
	}
}

func (h *BatchHandler) GetByID(ctx *gin.Context) {
	batchID := ctx.Param("id")

	batch, err := h.batchUsecase.GetByID(ctx.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errBatchNotFound})
			return
		}
		h.logger.Error("get batch by id", "batch_id", batchID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toBatchResponse(batch))
}

func (h *BatchHandler) Pause(ctx *gin.Context) {
	h.setActive(ctx, "pause", h.batchUsecase.Pause)
}

func (h *BatchHandler) Resume(ctx *gin.Context) {
	h.setActive(ctx, "resume", h.batchUsecase.Resume)
}

func (h *BatchHandler) setActive(ctx *gin.Context, op string, fn func(ctx context.Context, batchID string) (*domain.Batch, error)) {
	batchID := ctx.Param("id")

	batch, err := fn(ctx.Request.Context(), batchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errBatchNotFound})
			return
		}
		h.logger.Error(op+" batch", "batch_id", batchID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toBatchResponse(batch))
}
