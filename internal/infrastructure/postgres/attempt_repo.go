package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

type AttemptRepository struct {
	pool *pgxpool.Pool
}

func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) CreateAttempt(ctx context.Context, a *domain.CallAttempt) (*domain.CallAttempt, error) {
	query := `
		INSERT INTO call_attempts (job_id, attempt_num, worker_id, phone, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, job_id, attempt_num, worker_id, phone, call_id,
		          started_at, completed_at, outcome, duration_ms, error`

	row := r.pool.QueryRow(ctx, query, a.JobID, a.AttemptNum, a.WorkerID, a.Phone, a.StartedAt)
	return scanAttempt(row)
}

func (r *AttemptRepository) CompleteAttempt(ctx context.Context, id string, outcome string, callID *string, errMsg *string, durationMS int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_attempts
		SET completed_at = NOW(),
		    outcome      = $2,
		    call_id      = $3,
		    error        = $4,
		    duration_ms  = $5
		WHERE id = $1`,
		id, outcome, callID, errMsg, durationMS,
	)
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	return nil
}

func (r *AttemptRepository) ListByJobID(ctx context.Context, jobID string) ([]*domain.CallAttempt, error) {
	query := `
		SELECT id, job_id, attempt_num, worker_id, phone, call_id,
		       started_at, completed_at, outcome, duration_ms, error
		FROM call_attempts
		WHERE job_id = $1
		ORDER BY started_at ASC`

	rows, err := r.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*domain.CallAttempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

func scanAttempt(row rowScanner) (*domain.CallAttempt, error) {
	var a domain.CallAttempt
	err := row.Scan(
		&a.ID, &a.JobID, &a.AttemptNum, &a.WorkerID, &a.Phone, &a.CallID,
		&a.StartedAt, &a.CompletedAt, &a.Outcome, &a.DurationMS, &a.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	return &a, nil
}
