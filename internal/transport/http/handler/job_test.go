package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
	"github.com/mariandamblena/speechAi-sub000/internal/transport/http/handler"
	"github.com/mariandamblena/speechAi-sub000/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ---- fakes ----

type fakeJobStore struct {
	getByID  func(ctx context.Context, jobID string) (*domain.Job, error)
	listJobs func(ctx context.Context, input repository.ListJobsInput) ([]*domain.Job, error)
	requeue  func(ctx context.Context, jobID string) error
}

func (s *fakeJobStore) Create(_ context.Context, job *domain.Job) (*domain.Job, error) {
	return job, nil
}

func (s *fakeJobStore) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.getByID(ctx, jobID)
}

func (s *fakeJobStore) ListJobs(ctx context.Context, input repository.ListJobsInput) ([]*domain.Job, error) {
	return s.listJobs(ctx, input)
}

func (s *fakeJobStore) ClaimOne(_ context.Context, _ string, _ time.Duration) (*domain.Job, error) {
	return nil, nil
}

func (s *fakeJobStore) ExtendLease(_ context.Context, _ string, _ time.Duration) error { return nil }

func (s *fakeJobStore) MarkDone(_ context.Context, _ string, _ domain.CallResult) error { return nil }

func (s *fakeJobStore) MarkFailed(_ context.Context, _ string, _ string, _ bool, _ time.Duration) error {
	return nil
}

func (s *fakeJobStore) Defer(_ context.Context, _ string, _ time.Time) error { return nil }

func (s *fakeJobStore) AdvancePhone(_ context.Context, _ string) error { return nil }

func (s *fakeJobStore) SetCallID(_ context.Context, _ string, _ string) error { return nil }

func (s *fakeJobStore) Requeue(ctx context.Context, jobID string) error {
	return s.requeue(ctx, jobID)
}

func (s *fakeJobStore) ReleaseStale(_ context.Context, _ time.Time, _ int) (int, error) {
	return 0, nil
}

func (s *fakeJobStore) FailStale(_ context.Context, _ time.Time, _ int) (int, error) {
	return 0, nil
}

type fakeAttemptLog struct {
	listByJobID func(ctx context.Context, jobID string) ([]*domain.CallAttempt, error)
}

func (a *fakeAttemptLog) CreateAttempt(_ context.Context, attempt *domain.CallAttempt) (*domain.CallAttempt, error) {
	return attempt, nil
}

func (a *fakeAttemptLog) CompleteAttempt(_ context.Context, _ string, _ string, _ *string, _ *string, _ int64) error {
	return nil
}

func (a *fakeAttemptLog) ListByJobID(ctx context.Context, jobID string) ([]*domain.CallAttempt, error) {
	return a.listByJobID(ctx, jobID)
}

// ---- helpers ----

func newJobEngine(store *fakeJobStore, attempts *fakeAttemptLog) *gin.Engine {
	h := handler.NewJobHandler(usecase.NewJobUsecase(store, attempts), slog.Default())
	r := gin.New()
	r.GET("/jobs", h.List)
	r.GET("/jobs/:id", h.GetByID)
	r.GET("/jobs/:id/attempts", h.ListAttempts)
	r.POST("/jobs/:id/requeue", h.Requeue)
	return r
}

var sampleJob = &domain.Job{
	ID:          "job-1",
	AccountID:   "acct-1",
	Status:      domain.StatusFailed,
	Attempts:    3,
	MaxAttempts: 3,
	Contact:     domain.Contact{Name: "Ana Torres", Phones: []string{"+56911111001"}},
}

// ---- tests ----

func TestGetJob_Found(t *testing.T) {
	store := &fakeJobStore{
		getByID: func(_ context.Context, jobID string) (*domain.Job, error) {
			if jobID != "job-1" {
				t.Errorf("jobID = %q", jobID)
			}
			return sampleJob, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1", nil)
	newJobEngine(store, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "job-1" || body["status"] != "failed" {
		t.Errorf("body = %v", body)
	}
}

func TestGetJob_NotFound_Returns404(t *testing.T) {
	store := &fakeJobStore{
		getByID: func(_ context.Context, _ string) (*domain.Job, error) {
			return nil, domain.ErrJobNotFound
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/nope", nil)
	newJobEngine(store, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListJobs_PassesFilters(t *testing.T) {
	var captured repository.ListJobsInput
	store := &fakeJobStore{
		listJobs: func(_ context.Context, input repository.ListJobsInput) ([]*domain.Job, error) {
			captured = input
			return []*domain.Job{sampleJob}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs?batch_id=batch-1&status=failed&limit=10", nil)
	newJobEngine(store, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if captured.BatchID != "batch-1" || captured.Status != domain.StatusFailed || captured.Limit != 10 {
		t.Errorf("captured input = %+v", captured)
	}
}

func TestListJobs_RejectsBadStatus(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs?status=exploded", nil)
	newJobEngine(&fakeJobStore{}, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListAttempts_ReturnsHistory(t *testing.T) {
	store := &fakeJobStore{
		getByID: func(_ context.Context, _ string) (*domain.Job, error) {
			return sampleJob, nil
		},
	}
	attempts := &fakeAttemptLog{
		listByJobID: func(_ context.Context, jobID string) ([]*domain.CallAttempt, error) {
			return []*domain.CallAttempt{
				{ID: "a-1", JobID: jobID, AttemptNum: 1, Phone: "+56911111001"},
				{ID: "a-2", JobID: jobID, AttemptNum: 2, Phone: "+56922222001"},
			}, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/job-1/attempts", nil)
	newJobEngine(store, attempts).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Attempts []map[string]any `json:"attempts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(body.Attempts))
	}
}

func TestRequeue_Success(t *testing.T) {
	requeued := false
	store := &fakeJobStore{
		requeue: func(_ context.Context, _ string) error {
			requeued = true
			return nil
		},
		getByID: func(_ context.Context, _ string) (*domain.Job, error) {
			fresh := *sampleJob
			fresh.Status = domain.StatusPending
			fresh.Attempts = 0
			return &fresh, nil
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/requeue", nil)
	newJobEngine(store, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !requeued {
		t.Error("store.Requeue was not called")
	}
}

func TestRequeue_NotTerminal_Returns409(t *testing.T) {
	store := &fakeJobStore{
		requeue: func(_ context.Context, _ string) error {
			return domain.ErrJobNotRequeueable
		},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/job-1/requeue", nil)
	newJobEngine(store, &fakeAttemptLog{}).ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}
