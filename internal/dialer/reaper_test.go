package dialer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type staleStore struct {
	*fakeStore
	released   int
	failed     int
	releaseErr error
}

func (s *staleStore) ReleaseStale(_ context.Context, _ time.Time, _ int) (int, error) {
	if s.releaseErr != nil {
		return 0, s.releaseErr
	}
	n := s.released
	s.released = 0
	return n, nil
}

func (s *staleStore) FailStale(_ context.Context, _ time.Time, _ int) (int, error) {
	n := s.failed
	s.failed = 0
	return n, nil
}

func TestReaper_HandlesBothStaleClasses(t *testing.T) {
	store := &staleStore{fakeStore: newFakeStore(), released: 3, failed: 1}
	r := NewReaper(store, slog.New(slog.DiscardHandler), time.Minute)

	r.reap(context.Background())

	if store.released != 0 || store.failed != 0 {
		t.Error("reap did not drain both stale classes")
	}
}

func TestReaper_ReleaseErrorDoesNotBlockFailPass(t *testing.T) {
	store := &staleStore{
		fakeStore:  newFakeStore(),
		releaseErr: errors.New("db down"),
		failed:     2,
	}
	r := NewReaper(store, slog.New(slog.DiscardHandler), time.Minute)

	r.reap(context.Background())

	if store.failed != 0 {
		t.Error("FailStale was not attempted after ReleaseStale failed")
	}
}

func TestReaper_StopsOnContextCancel(t *testing.T) {
	store := &staleStore{fakeStore: newFakeStore()}
	r := NewReaper(store, slog.New(slog.DiscardHandler), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}
