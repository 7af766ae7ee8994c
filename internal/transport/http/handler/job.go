package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/usecase"
)

type JobHandler struct {
	jobUsecase *usecase.JobUsecase
	logger     *slog.Logger
}

func NewJobHandler(jobUsecase *usecase.JobUsecase, logger *slog.Logger) *JobHandler {
	return &JobHandler{jobUsecase: jobUsecase, logger: logger.With("component", "job_handler")}
}

type listJobsRequest struct {
	BatchID   string `form:"batch_id"`
	AccountID string `form:"account_id"`
	Status    string `form:"status" binding:"omitempty,oneof=pending in_progress done failed"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

type jobResponse struct {
	ID            string             `json:"id"`
	BatchID       *string            `json:"batch_id,omitempty"`
	AccountID     string             `json:"account_id"`
	Status        domain.Status      `json:"status"`
	Attempts      int                `json:"attempts"`
	MaxAttempts   int                `json:"max_attempts"`
	Contact       domain.Contact     `json:"contact"`
	CallID        *string            `json:"call_id,omitempty"`
	CallResult    *domain.CallResult `json:"call_result,omitempty"`
	LastError     *string            `json:"last_error,omitempty"`
	NextTryAt     *time.Time         `json:"next_try_at,omitempty"`
	ReservedUntil *time.Time         `json:"reserved_until,omitempty"`
	WorkerID      *string            `json:"worker_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type attemptResponse struct {
	ID          string     `json:"id"`
	AttemptNum  int        `json:"attempt_num"`
	WorkerID    string     `json:"worker_id"`
	Phone       string     `json:"phone"`
	CallID      *string    `json:"call_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Outcome     *string    `json:"outcome,omitempty"`
	DurationMS  *int64     `json:"duration_ms,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

func toJobResponse(job *domain.Job) jobResponse {
	return jobResponse{
		ID:            job.ID,
		BatchID:       job.BatchID,
		AccountID:     job.AccountID,
		Status:        job.Status,
		Attempts:      job.Attempts,
		MaxAttempts:   job.MaxAttempts,
		Contact:       job.Contact,
		CallID:        job.CallID,
		CallResult:    job.CallResult,
		LastError:     job.LastError,
		NextTryAt:     job.NextTryAt,
		ReservedUntil: job.ReservedUntil,
		WorkerID:      job.WorkerID,
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

func (h *JobHandler) List(ctx *gin.Context) {
	var req listJobsRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobs, err := h.jobUsecase.List(ctx.Request.Context(), usecase.ListJobsInput{
		BatchID:   req.BatchID,
		AccountID: req.AccountID,
		Status:    req.Status,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		h.logger.Error("list jobs", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, toJobResponse(job))
	}
	ctx.JSON(http.StatusOK, gin.H{"jobs": out, "count": len(out)})
}

func (h *JobHandler) GetByID(ctx *gin.Context) {
	jobID := ctx.Param("id")

	job, err := h.jobUsecase.GetByID(ctx.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
			return
		}
		h.logger.Error("get job by id", "job_id", jobID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(job))
}

func (h *JobHandler) ListAttempts(ctx *gin.Context) {
	jobID := ctx.Param("id")

	attempts, err := h.jobUsecase.ListAttempts(ctx.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
			return
		}
		h.logger.Error("list attempts", "job_id", jobID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResponse{
			ID:          a.ID,
			AttemptNum:  a.AttemptNum,
			WorkerID:    a.WorkerID,
			Phone:       a.Phone,
			CallID:      a.CallID,
			StartedAt:   a.StartedAt,
			CompletedAt: a.CompletedAt,
			Outcome:     a.Outcome,
			DurationMS:  a.DurationMS,
			Error:       a.Error,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"attempts": out})
}

func (h *JobHandler) Requeue(ctx *gin.Context) {
	jobID := ctx.Param("id")

	job, err := h.jobUsecase.Requeue(ctx.Request.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errJobNotFound})
		case errors.Is(err, domain.ErrJobNotRequeueable):
			ctx.JSON(http.StatusConflict, gin.H{"error": errJobNotRequeueable})
		default:
			h.logger.Error("requeue job", "job_id", jobID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusOK, toJobResponse(job))
}
