package notify_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/mariandamblena/speechAi-sub000/internal/notify"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) Send(_ context.Context, to, subject, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+"|"+subject)
	return nil
}

func TestAlerts_BalanceExhausted_SendsOnce(t *testing.T) {
	sender := &fakeSender{}
	alerts := notify.NewAlerts(sender, "oncall@example.com", slog.Default())

	for i := 0; i < 5; i++ {
		alerts.BalanceExhausted(context.Background(), "acct-1")
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0], "acct-1") {
		t.Errorf("email = %q, want account id in subject", sender.sent[0])
	}
	if !strings.HasPrefix(sender.sent[0], "oncall@example.com|") {
		t.Errorf("email = %q, want oncall recipient", sender.sent[0])
	}
}

func TestAlerts_DedupIsPerAccount(t *testing.T) {
	sender := &fakeSender{}
	alerts := notify.NewAlerts(sender, "oncall@example.com", slog.Default())

	alerts.BalanceExhausted(context.Background(), "acct-1")
	alerts.BalanceExhausted(context.Background(), "acct-2")
	alerts.BalanceExhausted(context.Background(), "acct-1")

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d emails, want 2", len(sender.sent))
	}
}

func TestNewSender_LocalEnvLogsInsteadOfSending(t *testing.T) {
	s := notify.NewSender("local", "", "", slog.Default())
	if _, ok := s.(*notify.LogSender); !ok {
		t.Errorf("sender for local env is %T, want *notify.LogSender", s)
	}

	s = notify.NewSender("production", "re_key", "alerts@example.com", slog.Default())
	if _, ok := s.(*notify.ResendSender); !ok {
		t.Errorf("sender for production env is %T, want *notify.ResendSender", s)
	}
}
