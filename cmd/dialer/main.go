package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mariandamblena/speechAi-sub000/config"
	"github.com/mariandamblena/speechAi-sub000/internal/dialer"
	"github.com/mariandamblena/speechAi-sub000/internal/health"
	"github.com/mariandamblena/speechAi-sub000/internal/infrastructure/postgres"
	ctxlog "github.com/mariandamblena/speechAi-sub000/internal/log"
	"github.com/mariandamblena/speechAi-sub000/internal/metrics"
	"github.com/mariandamblena/speechAi-sub000/internal/notify"
	"github.com/mariandamblena/speechAi-sub000/internal/provider"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	batchCacheTTL   = 5 * time.Minute
	reaperInterval  = 30 * time.Second
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		log.Fatalf("migrate: %v", err)
	}
	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	jobRepo := postgres.NewJobRepository(pool)
	attemptRepo := postgres.NewAttemptRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	accountRepo := postgres.NewAccountRepository(pool)

	callClient := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, logger)

	sender := notify.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	alerts := notify.NewAlerts(sender, cfg.AlertEmail, logger)

	orchestrator := dialer.NewOrchestrator(
		jobRepo,
		attemptRepo,
		dialer.NewBatchCache(batchRepo, batchCacheTTL),
		batchRepo,
		accountRepo,
		callClient,
		alerts,
		logger,
		dialer.Defaults{
			MaxAttempts:        cfg.MaxAttempts,
			RetryDelay:         cfg.RetryDelay(),
			NoAnswerRetryDelay: cfg.NoAnswerRetryDelay(),
			PollInterval:       cfg.CallPollInterval(),
			MaxCallDuration:    cfg.MaxCallDuration(),
			RingTimeoutSec:     cfg.RingTimeoutSec,
			Lease:              cfg.Lease(),
			AgentID:            cfg.AgentID,
			FromNumber:         cfg.FromNumber,
		},
	)

	workers := dialer.NewPool(jobRepo, orchestrator, logger, cfg.WorkerCount, cfg.ClaimInterval(), cfg.Lease())
	workers.Start(ctx)

	reaper := dialer.NewReaper(jobRepo, logger, reaperInterval)
	go reaper.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	if err := workers.Wait(shutdownTimeout); err != nil {
		logger.Error("worker shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("dialer shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
