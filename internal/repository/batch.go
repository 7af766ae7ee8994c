package repository

import (
	"context"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

// BatchService is the batch-configuration collaborator. Read-mostly from the
// dialer's perspective; the counters are best-effort bookkeeping.
type BatchService interface {
	GetByID(ctx context.Context, batchID string) (*domain.Batch, error)
	IncrementCompleted(ctx context.Context, batchID string) error
	IncrementFailed(ctx context.Context, batchID string) error

	SetActive(ctx context.Context, batchID string, active bool) error
}
