package repository

import (
	"context"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

type ListJobsInput struct {
	BatchID   string
	AccountID string
	Status    domain.Status // empty = all statuses
	Limit     int
	Offset    int
}

// JobStore is the shared-queue contract. The orchestrator and worker pool
// depend on this interface, not on Postgres, so tests can run against a fake.
//
// ClaimOne is the core correctness primitive: under N concurrent callers each
// job must be handed to at most one of them while its lease is active.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) (*domain.Job, error)
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobs(ctx context.Context, input ListJobsInput) ([]*domain.Job, error)

	// ClaimOne atomically selects one claimable job, marks it in_progress,
	// stamps the lease and increments attempts. Returns (nil, nil) when no
	// job matches.
	ClaimOne(ctx context.Context, workerID string, lease time.Duration) (*domain.Job, error)

	// ExtendLease pushes reserved_until forward while a worker is still
	// actively polling a long-running call.
	ExtendLease(ctx context.Context, jobID string, lease time.Duration) error

	MarkDone(ctx context.Context, jobID string, result domain.CallResult) error

	// MarkFailed records reason. Terminal failures go to status=failed and
	// stay there; retryable ones return to pending with next_try_at=now+delay.
	MarkFailed(ctx context.Context, jobID string, reason string, terminal bool, retryDelay time.Duration) error

	// Defer reschedules a job that was claimed outside its calling window:
	// back to pending, reserved_until set to the next allowed instant, and
	// the claim's attempt increment undone (a deferral is not an attempt).
	Defer(ctx context.Context, jobID string, until time.Time) error

	// AdvancePhone moves the contact's phone cursor to the next candidate,
	// wrapping to 0 after the last one.
	AdvancePhone(ctx context.Context, jobID string) error

	// SetCallID persists the provider call id as soon as a call starts, so a
	// crash mid-poll does not lose the linkage.
	SetCallID(ctx context.Context, jobID string, callID string) error

	// Requeue puts a terminally failed job back to pending with a fresh
	// attempt budget. Ops-API surface, not used by the dialer.
	Requeue(ctx context.Context, jobID string) error

	// Reaper methods — recover jobs whose worker died mid-call.
	ReleaseStale(ctx context.Context, now time.Time, limit int) (int, error)
	FailStale(ctx context.Context, now time.Time, limit int) (int, error)
}
