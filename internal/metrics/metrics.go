package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/mariandamblena/speechAi-sub000/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics

	JobPickupLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dialer",
		Name:      "job_pickup_latency_seconds",
		Help:      "Time from job creation to a worker claiming it.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	CallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dialer",
		Name:      "call_duration_seconds",
		Help:      "Wall-clock duration of one job-processing pass.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"outcome"})

	CallsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dialer",
		Name:      "calls_in_flight",
		Help:      "Number of jobs currently being processed by workers.",
	})

	JobsProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dialer",
		Name:      "jobs_processed_total",
		Help:      "Total job-processing passes, by outcome.",
	}, []string{"outcome"})

	PollCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dialer",
		Name:      "poll_cycles_total",
		Help:      "Total provider status polls across all calls.",
	})

	// Reaper metrics

	ReaperRescuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dialer",
		Name:      "reaper_rescued_total",
		Help:      "Total expired-lease jobs handled by the reaper.",
	}, []string{"action"})

	// Pool lifecycle

	PoolStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dialer",
		Name:      "pool_start_time_seconds",
		Help:      "Unix timestamp when the worker pool started.",
	})

	PoolShutdownsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dialer",
		Name:      "pool_shutdowns_total",
		Help:      "Number of times the worker pool has shut down.",
	})

	// HTTP metrics (ops API)

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dialer",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dialer",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		JobPickupLatency,
		CallDuration,
		CallsInFlight,
		JobsProcessedTotal,
		PollCyclesTotal,
		ReaperRescuedTotal,
		PoolStartTime,
		PoolShutdownsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus the liveness/readiness probes on the
// operational port, away from the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		status := http.StatusOK
		if result.Status != "up" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
