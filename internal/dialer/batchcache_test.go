package dialer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
)

type countingBatches struct {
	mu    sync.Mutex
	calls int
	batch *domain.Batch
}

func (b *countingBatches) GetByID(_ context.Context, _ string) (*domain.Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.batch == nil {
		return nil, domain.ErrBatchNotFound
	}
	return b.batch, nil
}

func (b *countingBatches) IncrementCompleted(_ context.Context, _ string) error { return nil }
func (b *countingBatches) IncrementFailed(_ context.Context, _ string) error    { return nil }
func (b *countingBatches) SetActive(_ context.Context, _ string, _ bool) error  { return nil }

func TestBatchCache_ServesFromCacheWithinTTL(t *testing.T) {
	src := &countingBatches{batch: &domain.Batch{ID: "batch-1", IsActive: true}}
	cache := NewBatchCache(src, time.Minute)

	for i := 0; i < 5; i++ {
		if _, err := cache.Get(context.Background(), "batch-1"); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	if src.calls != 1 {
		t.Errorf("source queried %d times, want 1", src.calls)
	}
}

func TestBatchCache_RefetchesAfterTTL(t *testing.T) {
	src := &countingBatches{batch: &domain.Batch{ID: "batch-1", IsActive: true}}
	cache := NewBatchCache(src, time.Minute)

	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, err := cache.Get(context.Background(), "batch-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	cache.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, err := cache.Get(context.Background(), "batch-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	if src.calls != 2 {
		t.Errorf("source queried %d times, want 2", src.calls)
	}
}

func TestBatchCache_NotFoundIsNotCached(t *testing.T) {
	src := &countingBatches{}
	cache := NewBatchCache(src, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.Get(context.Background(), "missing"); err != domain.ErrBatchNotFound {
			t.Fatalf("get: %v, want ErrBatchNotFound", err)
		}
	}

	if src.calls != 2 {
		t.Errorf("source queried %d times, want 2", src.calls)
	}
}

func TestBatchCache_InvalidateForcesRefetch(t *testing.T) {
	src := &countingBatches{batch: &domain.Batch{ID: "batch-1", IsActive: true}}
	cache := NewBatchCache(src, time.Hour)

	if _, err := cache.Get(context.Background(), "batch-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	cache.Invalidate("batch-1")
	if _, err := cache.Get(context.Background(), "batch-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	if src.calls != 2 {
		t.Errorf("source queried %d times, want 2", src.calls)
	}
}
