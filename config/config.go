package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT" envDefault:"8080" validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// Dialer
	WorkerCount      int `env:"WORKER_COUNT" envDefault:"5" validate:"min=1,max=100"`
	LeaseSeconds     int `env:"LEASE_SECONDS" envDefault:"120" validate:"min=10,max=3600"`
	ClaimIntervalSec int `env:"CLAIM_INTERVAL_SEC" envDefault:"2" validate:"min=1,max=60"`
	MaxAttempts      int `env:"MAX_ATTEMPTS" envDefault:"3" validate:"min=1,max=20"`

	// Call lifecycle
	CallPollIntervalSec     int     `env:"CALL_POLL_INTERVAL_SEC" envDefault:"5" validate:"min=1,max=60"`
	RingTimeoutSec          int     `env:"RING_TIMEOUT_SEC" envDefault:"30" validate:"min=5,max=120"`
	MaxCallDurationSec      int     `env:"MAX_CALL_DURATION_SEC" envDefault:"600" validate:"min=30,max=3600"`
	RetryDelayHours         float64 `env:"RETRY_DELAY_HOURS" envDefault:"1" validate:"gt=0"`
	NoAnswerRetryDelayHours float64 `env:"NO_ANSWER_RETRY_DELAY_HOURS" envDefault:"24" validate:"gt=0"`

	// Voice provider
	ProviderBaseURL string `env:"PROVIDER_BASE_URL,required" validate:"required,url"`
	ProviderAPIKey  string `env:"PROVIDER_API_KEY,required" validate:"required"`
	AgentID         string `env:"AGENT_ID,required" validate:"required"`
	FromNumber      string `env:"FROM_NUMBER" envDefault:""`

	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	// Alerts
	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM" validate:"required_if=Env production,required_if=Env staging"`
	AlertEmail   string `env:"ALERT_EMAIL"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if cfg.NoAnswerRetryDelayHours == cfg.RetryDelayHours {
		return nil, fmt.Errorf("invalid config: NO_ANSWER_RETRY_DELAY_HOURS must differ from RETRY_DELAY_HOURS")
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Lease() time.Duration         { return time.Duration(c.LeaseSeconds) * time.Second }
func (c *Config) ClaimInterval() time.Duration { return time.Duration(c.ClaimIntervalSec) * time.Second }
func (c *Config) CallPollInterval() time.Duration {
	return time.Duration(c.CallPollIntervalSec) * time.Second
}
func (c *Config) MaxCallDuration() time.Duration {
	return time.Duration(c.MaxCallDurationSec) * time.Second
}
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayHours * float64(time.Hour))
}
func (c *Config) NoAnswerRetryDelay() time.Duration {
	return time.Duration(c.NoAnswerRetryDelayHours * float64(time.Hour))
}
