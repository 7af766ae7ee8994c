package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

const batchColumns = `id, account_id, name, is_active, call_settings,
	total_jobs, completed_jobs, failed_jobs, created_at, updated_at`

type BatchRepository struct {
	pool *pgxpool.Pool
}

func NewBatchRepository(pool *pgxpool.Pool) *BatchRepository {
	return &BatchRepository{pool: pool}
}

func (r *BatchRepository) GetByID(ctx context.Context, batchID string) (*domain.Batch, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+batchColumns+` FROM batches WHERE id = $1`, batchID)
	return scanBatch(row)
}

func (r *BatchRepository) Create(ctx context.Context, b *domain.Batch) (*domain.Batch, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO batches (account_id, name, is_active, call_settings, total_jobs)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+batchColumns,
		b.AccountID, b.Name, b.IsActive, b.CallSettings, b.TotalJobs)
	return scanBatch(row)
}

func (r *BatchRepository) IncrementCompleted(ctx context.Context, batchID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE batches
		SET completed_jobs = completed_jobs + 1, updated_at = NOW()
		WHERE id = $1`, batchID)
	return err
}

func (r *BatchRepository) IncrementFailed(ctx context.Context, batchID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE batches
		SET failed_jobs = failed_jobs + 1, updated_at = NOW()
		WHERE id = $1`, batchID)
	return err
}

func (r *BatchRepository) SetActive(ctx context.Context, batchID string, active bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE batches SET is_active = $2, updated_at = NOW()
		WHERE id = $1`, batchID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

func scanBatch(row rowScanner) (*domain.Batch, error) {
	var b domain.Batch
	err := row.Scan(
		&b.ID, &b.AccountID, &b.Name, &b.IsActive, &b.CallSettings,
		&b.TotalJobs, &b.CompletedJobs, &b.FailedJobs, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, fmt.Errorf("scan batch: %w", err)
	}
	return &b, nil
}
