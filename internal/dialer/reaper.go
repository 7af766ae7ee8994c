package dialer

import (
	"context"
	"log/slog"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/metrics"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

const reapBatchSize = 100

// Reaper returns expired-lease jobs to the queue. A worker that died
// mid-call leaves its job in_progress; once reserved_until passes, the job
// either becomes claimable again or, with its attempt budget spent, is
// terminally failed.
type Reaper struct {
	store    repository.JobStore
	logger   *slog.Logger
	interval time.Duration
}

func NewReaper(store repository.JobStore, logger *slog.Logger, interval time.Duration) *Reaper {
	return &Reaper{
		store:    store,
		logger:   logger.With("component", "reaper"),
		interval: interval,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper shut down")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	now := time.Now()

	released, err := r.store.ReleaseStale(ctx, now, reapBatchSize)
	if err != nil {
		r.logger.Error("release stale jobs", "error", err)
	} else if released > 0 {
		metrics.ReaperRescuedTotal.WithLabelValues("released").Add(float64(released))
		r.logger.Info("released stale jobs", "count", released)
	}

	failed, err := r.store.FailStale(ctx, now, reapBatchSize)
	if err != nil {
		r.logger.Error("fail stale jobs", "error", err)
	} else if failed > 0 {
		metrics.ReaperRescuedTotal.WithLabelValues("failed").Add(float64(failed))
		r.logger.Info("terminally failed stale jobs", "count", failed)
	}
}
