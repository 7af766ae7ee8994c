package dialer

import (
	"context"
	"sync"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
)

// BatchCache is a per-process, TTL-bounded cache of batch configurations.
// The orchestrator reads the batch on every job but batches rarely change,
// so a slightly stale entry is acceptable: at worst one job runs with
// outdated window/retry settings.
type BatchCache struct {
	batches repository.BatchService
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]batchEntry
}

type batchEntry struct {
	batch     *domain.Batch
	fetchedAt time.Time
}

func NewBatchCache(batches repository.BatchService, ttl time.Duration) *BatchCache {
	return &BatchCache{
		batches: batches,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]batchEntry),
	}
}

func (c *BatchCache) Get(ctx context.Context, batchID string) (*domain.Batch, error) {
	c.mu.Lock()
	entry, ok := c.entries[batchID]
	c.mu.Unlock()

	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.batch, nil
	}

	batch, err := c.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[batchID] = batchEntry{batch: batch, fetchedAt: c.now()}
	c.mu.Unlock()

	return batch, nil
}

// Invalidate drops one entry, used after pause/resume so the change is
// picked up before the TTL expires.
func (c *BatchCache) Invalidate(batchID string) {
	c.mu.Lock()
	delete(c.entries, batchID)
	c.mu.Unlock()
}
