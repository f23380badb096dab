// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/wellscreen/internal/domain/scoring"
)

// Supported store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreJSONL  = "jsonl"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MaxBodyBytes caps the size of a submission request body.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// DedupeSize sets how many idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	Store      StoreConfig      `koanf:"store"`
	Escalation EscalationConfig `koanf:"escalation"`
	Metrics    MetricsConfig    `koanf:"metrics"`

	// Weights are the scoring combination weights.
	Weights scoring.Weights `koanf:"weights"`
}

// StoreConfig selects where screening records are persisted.
type StoreConfig struct {
	// Driver is one of memory, sqlite or jsonl.
	Driver string `koanf:"driver"`
	// Path is the database file (sqlite) or ledger directory (jsonl).
	Path string `koanf:"path"`
}

// EscalationConfig controls the follow-up queue for high-risk screenings.
type EscalationConfig struct {
	// MinTier is the lowest tier that is escalated.
	MinTier int `koanf:"min_tier"`
	// QueueSize bounds the in-memory escalation queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of escalation workers.
	WorkerCount int `koanf:"worker_count"`
}

// MetricsConfig controls Prometheus collection.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
	// RefreshInterval is how often sampled gauges are updated.
	RefreshInterval time.Duration `koanf:"refresh_interval"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:     "info",
		Addr:         ":9080",
		MaxBodyBytes: 64 << 10,
		DedupeSize:   50_000,
		Store: StoreConfig{
			Driver: StoreMemory,
		},
		Escalation: EscalationConfig{
			MinTier:     3,
			QueueSize:   1024,
			WorkerCount: runtime.NumCPU(),
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			RefreshInterval: 10 * time.Second,
		},
		Weights: scoring.DefaultWeights(),
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StoreJSONL:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for the %s driver", ErrInvalidConfig, c.Store.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.Escalation.MinTier < 1 || c.Escalation.MinTier > 3 {
		return fmt.Errorf("%w: escalation.min_tier must be 1, 2 or 3", ErrInvalidConfig)
	}
	if c.Escalation.QueueSize <= 0 {
		return fmt.Errorf("%w: escalation.queue_size must be positive", ErrInvalidConfig)
	}
	if c.Escalation.WorkerCount < 0 {
		return fmt.Errorf("%w: escalation.worker_count must not be negative", ErrInvalidConfig)
	}

	if c.Metrics.RefreshInterval <= 0 {
		return fmt.Errorf("%w: metrics.refresh_interval must be positive", ErrInvalidConfig)
	}

	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
