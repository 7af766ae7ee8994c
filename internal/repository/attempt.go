package repository

import (
	"context"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

// AttemptLog records one row per processing pass. A worker crash leaves a
// visible incomplete entry (completed_at = NULL) in the history.
type AttemptLog interface {
	CreateAttempt(ctx context.Context, a *domain.CallAttempt) (*domain.CallAttempt, error)
	CompleteAttempt(ctx context.Context, id string, outcome string, callID *string, errMsg *string, durationMS int64) error
	ListByJobID(ctx context.Context, jobID string) ([]*domain.CallAttempt, error)
}
