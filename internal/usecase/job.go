package usecase

import (
	"context"
	"fmt"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type JobUsecase struct {
	jobs     repository.JobStore
	attempts repository.AttemptLog
}

func NewJobUsecase(jobs repository.JobStore, attempts repository.AttemptLog) *JobUsecase {
	return &JobUsecase{jobs: jobs, attempts: attempts}
}

type ListJobsInput struct {
	BatchID   string
	AccountID string
	Status    string
	Limit     int
	Offset    int
}

func (u *JobUsecase) List(ctx context.Context, input ListJobsInput) ([]*domain.Job, error) {
	if input.Limit <= 0 {
		input.Limit = defaultListLimit
	}
	if input.Limit > maxListLimit {
		input.Limit = maxListLimit
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	jobs, err := u.jobs.ListJobs(ctx, repository.ListJobsInput{
		BatchID:   input.BatchID,
		AccountID: input.AccountID,
		Status:    domain.Status(input.Status),
		Limit:     input.Limit,
		Offset:    input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

func (u *JobUsecase) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (u *JobUsecase) ListAttempts(ctx context.Context, jobID string) ([]*domain.CallAttempt, error) {
	if _, err := u.jobs.GetByID(ctx, jobID); err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	attempts, err := u.attempts.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, nil
}

// Requeue resets a terminally failed job so the dialer picks it up again
// with a fresh attempt budget.
func (u *JobUsecase) Requeue(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := u.jobs.Requeue(ctx, jobID); err != nil {
		return nil, fmt.Errorf("requeue job: %w", err)
	}
	job, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}
