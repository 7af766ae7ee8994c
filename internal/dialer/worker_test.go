package dialer

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

func TestPool_ProcessesEveryJobExactlyOnce(t *testing.T) {
	f := newFixture(nil)

	const jobCount = 12
	for i := 0; i < jobCount; i++ {
		job := testJob("", 0)
		job.ID = fmt.Sprintf("job-%d", i)
		// A pre-existing successful result short-circuits processing, so the
		// pool test exercises only claim/dispatch behavior.
		job.CallResult = &domain.CallResult{Success: true, Status: "ended"}
		f.store.claimQueue = append(f.store.claimQueue, job)
	}

	pool := NewPool(f.store, f.orch, slog.New(slog.DiscardHandler), 4, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.store.mu.Lock()
		processed := len(f.store.done)
		f.store.mu.Unlock()
		if processed == jobCount {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := pool.Wait(2 * time.Second); err != nil {
		t.Fatalf("pool did not shut down: %v", err)
	}

	if got := len(f.store.done); got != jobCount {
		t.Errorf("processed %d jobs, want %d", got, jobCount)
	}
}

func TestPool_ShutdownUnblocksIdleWorkers(t *testing.T) {
	f := newFixture(nil)
	pool := NewPool(f.store, f.orch, slog.New(slog.DiscardHandler), 3, 50*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := pool.Wait(2 * time.Second); err != nil {
		t.Fatalf("pool did not shut down: %v", err)
	}
}

func TestPool_WorkerSurvivesPanickingJob(t *testing.T) {
	f := newFixture(nil)

	// Nil-ing the batch cache makes any job with a batch reference panic
	// inside Process. The healthy job short-circuits before touching it.
	panicking := testJob("batch-1", 0)
	panicking.ID = "job-panic"
	healthy := testJob("", 0)
	healthy.ID = "job-ok"
	healthy.CallResult = &domain.CallResult{Success: true, Status: "ended"}

	f.store.claimQueue = []*domain.Job{panicking, healthy}
	f.orch.batches = nil // Get on a nil cache panics

	pool := NewPool(f.store, f.orch, slog.New(slog.DiscardHandler), 1, 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		f.store.mu.Lock()
		_, ok := f.store.done["job-ok"]
		f.store.mu.Unlock()
		if ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := pool.Wait(2 * time.Second); err != nil {
		t.Fatalf("pool did not shut down: %v", err)
	}

	if _, ok := f.store.done["job-ok"]; !ok {
		t.Error("worker did not survive the panicking job")
	}
}
