package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

const jobColumns = `id, batch_id, account_id, status, attempts, max_attempts,
	reserved_until, worker_id, contact_name, contact_ext_id, phones,
	next_phone_index, payload, call_id, call_result, last_error, next_try_at,
	created_at, updated_at`

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	query := `
		INSERT INTO call_jobs (
			batch_id, account_id, status, max_attempts, contact_name,
			contact_ext_id, phones, next_phone_index, payload, next_try_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + jobColumns

	row := r.pool.QueryRow(ctx, query,
		job.BatchID,
		job.AccountID,
		job.Status,
		job.MaxAttempts,
		job.Contact.Name,
		job.Contact.ExternalID,
		job.Contact.Phones,
		job.Contact.NextPhoneIndex,
		job.Payload,
		job.NextTryAt,
	)
	return scanJob(row)
}

func (r *JobRepository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM call_jobs WHERE id = $1`, jobID)
	return scanJob(row)
}

// ClaimOne hands one claimable job to the calling worker.
//
// FOR UPDATE SKIP LOCKED makes the select-and-update atomic across concurrent
// workers: a row locked by one claimer is invisible to the rest, so each job
// is returned to at most one caller. Jobs deferred outside their calling
// window carry a future reserved_until and are skipped until it passes.
func (r *JobRepository) ClaimOne(ctx context.Context, workerID string, lease time.Duration) (*domain.Job, error) {
	query := `
		UPDATE call_jobs
		SET    status         = 'in_progress',
		       attempts       = call_jobs.attempts + 1,
		       reserved_until = NOW() + $2 * INTERVAL '1 second',
		       worker_id      = $1,
		       updated_at     = NOW()
		WHERE id = (
			SELECT j.id FROM call_jobs j
			LEFT JOIN batches b ON b.id = j.batch_id
			WHERE  j.status = 'pending'
			  AND  j.attempts < j.max_attempts
			  AND  (b.id IS NULL OR b.is_active)
			  AND  (j.reserved_until IS NULL OR j.reserved_until <= NOW())
			  AND  (j.next_try_at IS NULL OR j.next_try_at <= NOW())
			LIMIT 1
			FOR UPDATE OF j SKIP LOCKED
		)
		RETURNING ` + jobColumns

	row := r.pool.QueryRow(ctx, query, workerID, lease.Seconds())
	job, err := scanJob(row)
	if errors.Is(err, domain.ErrJobNotFound) {
		return nil, nil // empty queue, not an error
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) ExtendLease(ctx context.Context, jobID string, lease time.Duration) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    reserved_until = NOW() + $2 * INTERVAL '1 second',
		       updated_at     = NOW()
		WHERE id = $1 AND status = 'in_progress'`,
		jobID, lease.Seconds())
	return err
}

func (r *JobRepository) MarkDone(ctx context.Context, jobID string, result domain.CallResult) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status         = 'done',
		       call_result    = $2,
		       reserved_until = NULL,
		       worker_id      = NULL,
		       next_try_at    = NULL,
		       last_error     = NULL,
		       updated_at     = NOW()
		WHERE id = $1`,
		jobID, result)
	return err
}

func (r *JobRepository) MarkFailed(ctx context.Context, jobID string, reason string, terminal bool, retryDelay time.Duration) error {
	if terminal {
		_, err := r.pool.Exec(ctx, `
			UPDATE call_jobs
			SET    status         = 'failed',
			       last_error     = $2,
			       reserved_until = NULL,
			       worker_id      = NULL,
			       next_try_at    = NULL,
			       updated_at     = NOW()
			WHERE id = $1`,
			jobID, reason)
		return err
	}

	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status         = 'pending',
		       last_error     = $2,
		       next_try_at    = NOW() + $3 * INTERVAL '1 second',
		       reserved_until = NULL,
		       worker_id      = NULL,
		       updated_at     = NOW()
		WHERE id = $1`,
		jobID, reason, retryDelay.Seconds())
	return err
}

// Defer undoes the claim's attempt increment: being outside the calling
// window is a scheduling deferral, not a failed attempt.
func (r *JobRepository) Defer(ctx context.Context, jobID string, until time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status         = 'pending',
		       attempts       = GREATEST(attempts - 1, 0),
		       reserved_until = $2,
		       worker_id      = NULL,
		       updated_at     = NOW()
		WHERE id = $1`,
		jobID, until)
	return err
}

// AdvancePhone wraps to index 0 after the last candidate so the next full
// retry cycle starts over from the first number.
func (r *JobRepository) AdvancePhone(ctx context.Context, jobID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    next_phone_index = CASE
		           WHEN next_phone_index + 1 >= cardinality(phones) THEN 0
		           ELSE next_phone_index + 1
		       END,
		       updated_at = NOW()
		WHERE id = $1`,
		jobID)
	return err
}

func (r *JobRepository) SetCallID(ctx context.Context, jobID string, callID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_jobs SET call_id = $2, updated_at = NOW()
		WHERE id = $1`,
		jobID, callID)
	return err
}

func (r *JobRepository) Requeue(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status           = 'pending',
		       attempts         = 0,
		       next_phone_index = 0,
		       call_id          = NULL,
		       call_result      = NULL,
		       last_error       = NULL,
		       next_try_at      = NULL,
		       updated_at       = NOW()
		WHERE id = $1 AND status = 'failed'`,
		jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, jobID); err != nil {
			return err
		}
		return domain.ErrJobNotRequeueable
	}
	return nil
}

func (r *JobRepository) ReleaseStale(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status         = 'pending',
		       reserved_until = NULL,
		       worker_id      = NULL,
		       last_error     = 'lease expired',
		       updated_at     = NOW()
		WHERE id IN (
			SELECT id FROM call_jobs
			WHERE  status         = 'in_progress'
			  AND  reserved_until < $1
			  AND  attempts       < max_attempts
			ORDER BY reserved_until ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	return int(tag.RowsAffected()), err
}

func (r *JobRepository) FailStale(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE call_jobs
		SET    status         = 'failed',
		       reserved_until = NULL,
		       worker_id      = NULL,
		       last_error     = 'lease expired: max attempts reached',
		       updated_at     = NOW()
		WHERE id IN (
			SELECT id FROM call_jobs
			WHERE  status         = 'in_progress'
			  AND  reserved_until < $1
			  AND  attempts       >= max_attempts
			ORDER BY reserved_until ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	return int(tag.RowsAffected()), err
}

func (r *JobRepository) ListJobs(ctx context.Context, input repository.ListJobsInput) ([]*domain.Job, error) {
	var args []any
	var where []string

	if input.BatchID != "" {
		args = append(args, input.BatchID)
		where = append(where, fmt.Sprintf("batch_id = $%d", len(args)))
	}
	if input.AccountID != "" {
		args = append(args, input.AccountID)
		where = append(where, fmt.Sprintf("account_id = $%d", len(args)))
	}
	if input.Status != "" {
		args = append(args, input.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, input.Limit, input.Offset)

	query := fmt.Sprintf(`
		SELECT %s FROM call_jobs
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		jobColumns, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	err := row.Scan(
		&j.ID, &j.BatchID, &j.AccountID, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.ReservedUntil, &j.WorkerID, &j.Contact.Name, &j.Contact.ExternalID,
		&j.Contact.Phones, &j.Contact.NextPhoneIndex, &j.Payload, &j.CallID,
		&j.CallResult, &j.LastError, &j.NextTryAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
