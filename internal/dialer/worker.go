package dialer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/metrics"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

// Pool runs a fixed number of worker loops. Each loop repeatedly claims one
// job and processes it to completion before claiming the next: a polling
// call intentionally blocks its worker, so the pool size caps in-flight
// calls. Workers share nothing but the store and the provider client.
type Pool struct {
	store         repository.JobStore
	orchestrator  *Orchestrator
	logger        *slog.Logger
	count         int
	claimInterval time.Duration
	lease         time.Duration

	idPrefix string
	wg       sync.WaitGroup
}

func NewPool(
	store repository.JobStore,
	orchestrator *Orchestrator,
	logger *slog.Logger,
	count int,
	claimInterval time.Duration,
	lease time.Duration,
) *Pool {
	hostname, _ := os.Hostname()
	return &Pool{
		store:         store,
		orchestrator:  orchestrator,
		logger:        logger,
		count:         count,
		claimInterval: claimInterval,
		lease:         lease,
		idPrefix:      fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

// Start launches the worker loops. It returns immediately; cancel ctx to
// begin shutdown and call Wait to join.
func (p *Pool) Start(ctx context.Context) {
	metrics.PoolStartTime.SetToCurrentTime()
	p.logger.Info("worker pool started", "workers", p.count)

	for i := 0; i < p.count; i++ {
		workerID := fmt.Sprintf("%s-w%d", p.idPrefix, i)
		p.wg.Add(1)
		go p.run(ctx, workerID)
	}
}

// Wait blocks until every worker has exited or the timeout elapses. A worker
// deep in a call poll observes cancellation at its next checkpoint, so the
// bound keeps shutdown from hanging on a slow provider.
func (p *Pool) Wait(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		metrics.PoolShutdownsTotal.Inc()
		p.logger.Info("worker pool shut down")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("worker pool: %d workers still busy after %s", p.count, timeout)
	}
}

func (p *Pool) run(ctx context.Context, workerID string) {
	defer p.wg.Done()
	logger := p.logger.With("worker_id", workerID)

	// Staggered start so N workers do not stampede the store together.
	if err := sleepCtx(ctx, time.Duration(rand.Int63n(int64(p.claimInterval)))); err != nil {
		return
	}
	logger.Info("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shut down")
			return
		default:
		}

		job, err := p.store.ClaimOne(ctx, workerID, p.lease)
		if err != nil {
			// A failing claim degrades to idle polling, never to a crash.
			logger.Error("claim job", "error", err)
			_ = sleepCtx(ctx, jitter(p.claimInterval))
			continue
		}
		if job == nil {
			_ = sleepCtx(ctx, jitter(p.claimInterval))
			continue
		}

		metrics.JobPickupLatency.Observe(time.Since(job.CreatedAt).Seconds())
		p.process(ctx, logger, job)
	}
}

// process shields the loop from a panicking pass: one poisoned job must
// never take down its worker. The job stays in_progress and the reaper
// reclaims it once the lease expires.
func (p *Pool) process(ctx context.Context, logger *slog.Logger, job *domain.Job) {
	metrics.CallsInFlight.Inc()
	defer metrics.CallsInFlight.Dec()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing job", "job_id", job.ID, "panic", r)
			_ = sleepCtx(ctx, jitter(p.claimInterval))
		}
	}()

	p.orchestrator.Process(ctx, job)
}
