package evangelho

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by [LoadConfigFromEnv].
const EnvPrefix = "EVANGELHO_"

// Config is the controller configuration. Build it with [DefaultConfig] and
// override fields, or load it with [LoadConfigFromEnv].
type Config struct {
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Provider ProviderConfig `envPrefix:"PROVIDER_"`
	Account  AccountConfig  `envPrefix:"ACCOUNT_"`
	Audit    AuditConfig    `envPrefix:"AUDIT_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the state update queue.
type SessionConfig struct {
	// QueueBuffer is the number of updates that may wait for the drain context.
	QueueBuffer int       `env:"QUEUE_BUFFER"`
	DrainMode   DrainMode `env:"DRAIN_MODE"`
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig bounds calls into the identity and profile services.
type ProviderConfig struct {
	CallTimeout time.Duration `env:"CALL_TIMEOUT"`
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls sign-up.
type AccountConfig struct {
	MinimumAge               int  `env:"MINIMUM_AGE"`
	SignInOnCreate           bool `env:"SIGN_IN_ON_CREATE"`
	RollbackOnProfileFailure bool `env:"ROLLBACK_ON_PROFILE_FAILURE"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			QueueBuffer: 64,
			DrainMode:   DrainBackground,
		},
		Provider: ProviderConfig{
			CallTimeout: 15 * time.Second,
		},
		Account: AccountConfig{
			MinimumAge:               DefaultMinimumAge,
			SignInOnCreate:           true,
			RollbackOnProfileFailure: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Session.QueueBuffer <= 0 {
		return errors.New("session queue buffer must be > 0")
	}
	if c.Session.DrainMode != DrainBackground && c.Session.DrainMode != DrainManual {
		return errors.New("session drain mode must be background or manual")
	}
	if c.Provider.CallTimeout <= 0 {
		return errors.New("provider call timeout must be > 0")
	}
	if c.Account.MinimumAge <= 0 || c.Account.MinimumAge > 150 {
		return errors.New("account minimum age must be between 1 and 150")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be > 0 when audit is enabled")
	}
	return nil
}

// LoadConfigFromEnv overlays EVANGELHO_* environment variables on
// [DefaultConfig] and validates the result.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UnmarshalText lets DrainMode be read from "background" or "manual".
func (m *DrainMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "background":
		*m = DrainBackground
	case "manual":
		*m = DrainManual
	default:
		return fmt.Errorf("unknown drain mode %q", string(text))
	}
	return nil
}
