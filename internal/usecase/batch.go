package usecase

import (
	"context"
	"fmt"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

type BatchUsecase struct {
	batches repository.BatchService
}

func NewBatchUsecase(batches repository.BatchService) *BatchUsecase {
	return &BatchUsecase{batches: batches}
}

func (u *BatchUsecase) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	batch, err := u.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return batch, nil
}

// Pause stops new claims for the batch's jobs. In-flight calls finish
// normally; their jobs are deferred on the next pass.
func (u *BatchUsecase) Pause(ctx context.Context, batchID string) (*domain.Batch, error) {
	return u.setActive(ctx, batchID, false)
}

func (u *BatchUsecase) Resume(ctx context.Context, batchID string) (*domain.Batch, error) {
	return u.setActive(ctx, batchID, true)
}

func (u *BatchUsecase) setActive(ctx context.Context, batchID string, active bool) (*domain.Batch, error) {
	if err := u.batches.SetActive(ctx, batchID, active); err != nil {
		return nil, fmt.Errorf("set batch active: %w", err)
	}
	batch, err := u.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return batch, nil
}
