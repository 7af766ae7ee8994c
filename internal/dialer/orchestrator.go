package dialer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mariandamblena/speechAi-sub000/internal/domain"
	"github.com/mariandamblena/speechAi-sub000/internal/metrics"
	"github.com/mariandamblena/speechAi-sub000/internal/provider"
	"github.com/mariandamblena/speechAi-sub000/internal/repository"
	"github.com/mariandamblena/speechAi-sub000/internal/schedule"
)

// CallProvider is the slice of the voice API the orchestrator uses.
type CallProvider interface {
	StartCall(ctx context.Context, in provider.StartCallInput) provider.StartCallResult
	GetCallStatus(ctx context.Context, callID string) provider.CallStatus
}

// Alerter receives best-effort operational alerts.
type Alerter interface {
	BalanceExhausted(ctx context.Context, accountID string)
}

// Defaults are the process-wide dialing settings; batches may override some
// of them per campaign.
type Defaults struct {
	MaxAttempts        int
	RetryDelay         time.Duration
	NoAnswerRetryDelay time.Duration
	PollInterval       time.Duration
	MaxCallDuration    time.Duration
	RingTimeoutSec     int
	Lease              time.Duration
	AgentID            string
	FromNumber         string
}

// transientDefer is how long a job is pushed back when an admission
// dependency (batch config, account lookup) fails transiently. The claim's
// attempt increment is undone, same as a calling-window deferral.
const transientDefer = time.Minute

// Orchestrator runs one full processing pass over a claimed job:
// admission checks, phone selection, call start, status polling, outcome
// classification and retry scheduling.
type Orchestrator struct {
	store    repository.JobStore
	attempts repository.AttemptLog
	batches  *BatchCache
	counters repository.BatchService
	accounts repository.AccountService
	provider CallProvider
	alerts   Alerter
	logger   *slog.Logger
	defaults Defaults

	// injectable for deterministic tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(
	store repository.JobStore,
	attempts repository.AttemptLog,
	batches *BatchCache,
	counters repository.BatchService,
	accounts repository.AccountService,
	callProvider CallProvider,
	alerts Alerter,
	logger *slog.Logger,
	defaults Defaults,
) *Orchestrator {
	return &Orchestrator{
		store:    store,
		attempts: attempts,
		batches:  batches,
		counters: counters,
		accounts: accounts,
		provider: callProvider,
		alerts:   alerts,
		logger:   logger.With("component", "orchestrator"),
		defaults: defaults,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// effective is the merged view of global defaults and batch overrides.
type effective struct {
	maxAttempts     int
	retryDelay      time.Duration
	noAnswerDelay   time.Duration
	pollInterval    time.Duration
	maxCallDuration time.Duration
	ringTimeoutSec  int
	window          *schedule.Window
}

// Process runs one pass. The job is already claimed: the caller owns its
// lease until Process returns.
func (o *Orchestrator) Process(ctx context.Context, job *domain.Job) {
	logger := o.logger.With("job_id", job.ID)
	start := o.now()

	// A worker may have crashed after the call succeeded but before the
	// store update landed. Never dial such a contact again.
	if job.CallResult != nil && job.CallResult.Success {
		logger.Info("job already has a successful result, marking done")
		if err := o.store.MarkDone(ctx, job.ID, *job.CallResult); err != nil {
			logger.Error("mark done", "error", err)
		}
		o.finish("already_done", start)
		return
	}

	eff, batch, err := o.resolve(ctx, job)
	if err != nil {
		logger.Warn("batch config unavailable, deferring", "error", err)
		o.deferJob(ctx, job, o.now().Add(transientDefer), logger)
		o.finish("deferred", start)
		return
	}
	if batch != nil && !batch.IsActive {
		// Paused between claim and processing (or a stale cache let it
		// through). Push back without burning an attempt.
		logger.Info("batch inactive, deferring")
		o.deferJob(ctx, job, o.now().Add(transientDefer), logger)
		o.finish("deferred", start)
		return
	}

	// Admission: calling window. Being outside it is a scheduling deferral,
	// not a failure — no attempt is counted and no delay policy applies.
	now := o.now()
	if !eff.window.Contains(now) {
		next := eff.window.NextOpen(now)
		logger.Info("outside calling window, deferred", "next_open", next)
		o.deferJob(ctx, job, next, logger)
		o.finish("deferred", start)
		return
	}

	// Admission: attempt budget. The claim already counted this pass.
	if job.Attempts > eff.maxAttempts {
		o.failTerminal(ctx, job, "max attempts reached", logger)
		o.finish("exhausted", start)
		return
	}

	// Admission: balance. Exhaustion is terminal — waiting will not refill
	// the account — and the provider must not be called at all.
	ok, err := o.accounts.CheckBalance(ctx, job.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			o.failTerminal(ctx, job, "account not found", logger)
			o.finish("no_account", start)
			return
		}
		logger.Warn("balance check unavailable, deferring", "error", err)
		o.deferJob(ctx, job, o.now().Add(transientDefer), logger)
		o.finish("deferred", start)
		return
	}
	if !ok {
		o.failTerminal(ctx, job, "insufficient balance", logger)
		if o.alerts != nil {
			o.alerts.BalanceExhausted(ctx, job.AccountID)
		}
		o.finish("no_balance", start)
		return
	}

	phone := job.Contact.CurrentPhone()
	if phone == "" {
		o.failTerminal(ctx, job, "no valid phone", logger)
		o.finish("no_phone", start)
		return
	}

	attempt := o.openAttempt(ctx, job, phone, logger)

	res := o.provider.StartCall(ctx, provider.StartCallInput{
		ToNumber:       phone,
		AgentID:        o.defaults.AgentID,
		FromNumber:     o.defaults.FromNumber,
		Variables:      job.Payload,
		RingTimeoutSec: eff.ringTimeoutSec,
	})
	if !res.Success {
		// A start failure is phone-specific, not job-fatal: move the
		// cursor to the next candidate and leave the job retry-eligible.
		logger.Warn("call start failed", "phone", phone, "error", res.Error)
		o.advancePhone(ctx, job, logger)
		o.retryOrExhaust(ctx, job, eff, "call start failed: "+res.Error, eff.retryDelay, logger)
		o.closeAttempt(ctx, attempt, "start_failed", nil, &res.Error, start)
		o.finish("start_failed", start)
		return
	}

	// Persist the linkage before polling so a crash mid-poll does not lose
	// the provider call.
	if err := o.store.SetCallID(ctx, job.ID, res.CallID); err != nil {
		logger.Error("persist call id", "call_id", res.CallID, "error", err)
	}
	logger.Info("call started", "phone", phone, "call_id", res.CallID)

	status, interrupted := o.poll(ctx, job, res.CallID, eff, logger)
	if interrupted {
		// Shutdown mid-call: leave the job in_progress with its attempt
		// record open; the lease will expire and the reaper reclaims it.
		logger.Info("poll interrupted by shutdown", "call_id", res.CallID)
		o.finish("interrupted", start)
		return
	}

	if !status.Terminal() {
		logger.Warn("call did not reach a terminal status in time", "call_id", res.CallID, "last_status", status.Status)
		reason := "call did not complete within the duration budget"
		o.retryOrExhaust(ctx, job, eff, reason, eff.retryDelay, logger)
		o.closeAttempt(ctx, attempt, "timeout", &res.CallID, &reason, start)
		o.finish("timeout", start)
		return
	}

	result := status.Result()
	if result.Success {
		if err := o.store.MarkDone(ctx, job.ID, result); err != nil {
			logger.Error("mark done", "error", err)
		}
		o.settleUsage(ctx, job, batch, result, logger)
		o.closeAttempt(ctx, attempt, "success", &res.CallID, nil, start)
		logger.Info("call completed", "call_id", res.CallID, "duration_s", result.Summary.DurationSeconds)
		o.finish("success", start)
		return
	}

	outcome := "failed"
	delay := eff.retryDelay
	if status.NoAnswer() {
		// The contact is reachable but unavailable: retry much later
		// instead of hammering the same number.
		outcome = "no_answer"
		delay = eff.noAnswerDelay
	}
	reason := "call ended: " + result.Status
	if result.Summary.DisconnectionReason != "" {
		reason += " (" + result.Summary.DisconnectionReason + ")"
	}
	logger.Warn("call failed", "call_id", res.CallID, "status", result.Status, "outcome", outcome)
	o.advancePhone(ctx, job, logger)
	o.retryOrExhaust(ctx, job, eff, reason, delay, logger)
	o.closeAttempt(ctx, attempt, outcome, &res.CallID, &reason, start)
	o.finish(outcome, start)
}

// poll watches the call until it terminates or the duration budget runs out,
// refreshing the job's lease on every cycle. A status-read error is
// transient: wait and poll again. Returns interrupted=true on cancellation.
func (o *Orchestrator) poll(ctx context.Context, job *domain.Job, callID string, eff effective, logger *slog.Logger) (provider.CallStatus, bool) {
	deadline := o.now().Add(eff.maxCallDuration)

	for {
		if err := o.store.ExtendLease(ctx, job.ID, o.defaults.Lease); err != nil {
			logger.Warn("extend lease", "error", err)
		}

		status := o.provider.GetCallStatus(ctx, callID)
		metrics.PollCyclesTotal.Inc()

		if status.Error != "" {
			logger.Debug("status read failed, will retry", "call_id", callID, "error", status.Error)
		} else if status.Terminal() {
			return status, false
		}

		if o.now().After(deadline) {
			// One last read; the caller decides what a non-terminal
			// answer means.
			return o.provider.GetCallStatus(ctx, callID), false
		}

		if err := o.sleep(ctx, jitter(eff.pollInterval)); err != nil {
			return provider.CallStatus{}, true
		}
	}
}

// retryOrExhaust leaves the job retry-eligible with the given delay, unless
// this pass consumed the last attempt — then the failure is terminal.
func (o *Orchestrator) retryOrExhaust(ctx context.Context, job *domain.Job, eff effective, reason string, delay time.Duration, logger *slog.Logger) {
	if job.Attempts >= eff.maxAttempts {
		o.failTerminal(ctx, job, reason+" (max attempts reached)", logger)
		return
	}
	if err := o.store.MarkFailed(ctx, job.ID, reason, false, delay); err != nil {
		logger.Error("mark failed (retryable)", "error", err)
	}
}

func (o *Orchestrator) failTerminal(ctx context.Context, job *domain.Job, reason string, logger *slog.Logger) {
	logger.Warn("job terminally failed", "reason", reason)
	if err := o.store.MarkFailed(ctx, job.ID, reason, true, 0); err != nil {
		logger.Error("mark failed (terminal)", "error", err)
	}
	if job.BatchID != nil {
		if err := o.counters.IncrementFailed(ctx, *job.BatchID); err != nil {
			logger.Warn("increment batch failed counter", "error", err)
		}
	}
}

func (o *Orchestrator) deferJob(ctx context.Context, job *domain.Job, until time.Time, logger *slog.Logger) {
	if err := o.store.Defer(ctx, job.ID, until); err != nil {
		logger.Error("defer job", "error", err)
	}
}

func (o *Orchestrator) advancePhone(ctx context.Context, job *domain.Job, logger *slog.Logger) {
	if err := o.store.AdvancePhone(ctx, job.ID); err != nil {
		logger.Error("advance phone", "error", err)
	}
}

// settleUsage reports the completed call to the billing and batch
// collaborators. Best-effort: the call genuinely happened, so a bookkeeping
// failure is logged but never rolls back the job's done status.
func (o *Orchestrator) settleUsage(ctx context.Context, job *domain.Job, batch *domain.Batch, result domain.CallResult, logger *slog.Logger) {
	minutes := float64(result.Summary.DurationSeconds) / 60
	if err := o.accounts.DebitUsage(ctx, job.AccountID, minutes, result.Summary.Cost); err != nil {
		logger.Warn("debit usage", "error", err)
	}
	if batch != nil {
		if err := o.counters.IncrementCompleted(ctx, batch.ID); err != nil {
			logger.Warn("increment batch completed counter", "error", err)
		}
	}
}

// resolve merges global defaults with the job's batch overrides.
func (o *Orchestrator) resolve(ctx context.Context, job *domain.Job) (effective, *domain.Batch, error) {
	eff := effective{
		maxAttempts:     o.defaults.MaxAttempts,
		retryDelay:      o.defaults.RetryDelay,
		noAnswerDelay:   o.defaults.NoAnswerRetryDelay,
		pollInterval:    o.defaults.PollInterval,
		maxCallDuration: o.defaults.MaxCallDuration,
		ringTimeoutSec:  o.defaults.RingTimeoutSec,
	}
	if job.MaxAttempts > 0 {
		eff.maxAttempts = job.MaxAttempts
	}

	if job.BatchID == nil {
		return eff, nil, nil
	}

	batch, err := o.batches.Get(ctx, *job.BatchID)
	if err != nil {
		if errors.Is(err, domain.ErrBatchNotFound) {
			// Orphaned batch reference: run with the defaults.
			return eff, nil, nil
		}
		return eff, nil, err
	}

	s := batch.CallSettings
	if s.MaxAttempts != nil && *s.MaxAttempts > 0 {
		eff.maxAttempts = *s.MaxAttempts
	}
	if s.RetryDelayHours != nil && *s.RetryDelayHours > 0 {
		eff.retryDelay = time.Duration(*s.RetryDelayHours * float64(time.Hour))
	}
	if s.RingTimeoutSec != nil && *s.RingTimeoutSec > 0 {
		eff.ringTimeoutSec = *s.RingTimeoutSec
	}
	if s.MaxCallDurationSec != nil && *s.MaxCallDurationSec > 0 {
		eff.maxCallDuration = time.Duration(*s.MaxCallDurationSec) * time.Second
	}

	win, err := schedule.FromSettings(s)
	if err != nil {
		// A malformed window must not strand the batch; dial unrestricted
		// and let the config get fixed.
		o.logger.Warn("invalid calling window, ignoring", "batch_id", batch.ID, "error", err)
	} else {
		eff.window = win
	}

	return eff, batch, nil
}

func (o *Orchestrator) openAttempt(ctx context.Context, job *domain.Job, phone string, logger *slog.Logger) *domain.CallAttempt {
	workerID := ""
	if job.WorkerID != nil {
		workerID = *job.WorkerID
	}
	attempt, err := o.attempts.CreateAttempt(ctx, &domain.CallAttempt{
		JobID:      job.ID,
		AttemptNum: job.Attempts,
		WorkerID:   workerID,
		Phone:      phone,
		StartedAt:  o.now(),
	})
	if err != nil {
		logger.Error("create attempt record", "error", err)
		return nil
	}
	return attempt
}

func (o *Orchestrator) closeAttempt(ctx context.Context, attempt *domain.CallAttempt, outcome string, callID *string, errMsg *string, start time.Time) {
	if attempt == nil {
		return
	}
	durationMS := o.now().Sub(start).Milliseconds()
	if err := o.attempts.CompleteAttempt(ctx, attempt.ID, outcome, callID, errMsg, durationMS); err != nil {
		o.logger.Error("complete attempt record", "job_id", attempt.JobID, "error", err)
	}
}

func (o *Orchestrator) finish(outcome string, start time.Time) {
	metrics.JobsProcessedTotal.WithLabelValues(outcome).Inc()
	metrics.CallDuration.WithLabelValues(outcome).Observe(o.now().Sub(start).Seconds())
}

// jitter spreads an interval by ±15% so N workers polling the provider do
// not synchronize.
func jitter(d time.Duration) time.Duration {
	spread := int64(float64(d) * 0.3)
	if spread <= 0 {
		return d
	}
	return d - time.Duration(spread/2) + time.Duration(rand.Int63n(spread))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
