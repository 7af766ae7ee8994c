package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs alerts instead of sending them — used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.logger.Info("alert email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends alerts via the Resend API — used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return &LogSender{logger: logger}
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Alerts raises operational emails to the on-call address. Deduplicates per
// account for the process lifetime: hundreds of jobs on a drained account
// must produce one email, not hundreds.
type Alerts struct {
	sender Sender
	to     string
	logger *slog.Logger

	mu   sync.Mutex
	sent map[string]bool
}

func NewAlerts(sender Sender, to string, logger *slog.Logger) *Alerts {
	return &Alerts{
		sender: sender,
		to:     to,
		logger: logger,
		sent:   make(map[string]bool),
	}
}

// BalanceExhausted reports that an account ran out of balance and its jobs
// are being failed. Best effort; a delivery failure is logged, never
// propagated into job processing.
func (a *Alerts) BalanceExhausted(ctx context.Context, accountID string) {
	a.mu.Lock()
	already := a.sent[accountID]
	a.sent[accountID] = true
	a.mu.Unlock()
	if already {
		return
	}

	subject := fmt.Sprintf("Dialer: account %s out of balance", accountID)
	body := fmt.Sprintf(
		"<p>Account <strong>%s</strong> has exhausted its balance. Pending call jobs for this account are being failed until it is topped up.</p>",
		accountID,
	)
	if err := a.sender.Send(ctx, a.to, subject, body); err != nil {
		a.logger.Error("send balance alert", "account_id", accountID, "error", err)
	}
}
