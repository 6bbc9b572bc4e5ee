package config

import (
	"log/slog"
	"time"
)

// ServerConfig holds the environment-tunable knobs for the feed server:
// batch sizing, session lifetime, adapter concurrency/timeouts, and
// dismissed-item retention.
//
// Environment variables:
//   - FEED_DEFAULT_BATCH_SIZE: items per scroll batch (default: 20)
//   - FEED_SESSION_TTL: idle session lifetime before pool state is reaped (default: 2h)
//   - FEED_MAX_ADAPTER_CONCURRENCY: max concurrent adapter fetches per request (default: 16)
//   - FEED_DEFAULT_ADAPTER_TIMEOUT: per-adapter fetch timeout (default: 5s)
//   - FEED_DISMISSED_RETENTION: dismissed-record TTL (default: 720h / 30 days)
type ServerConfig struct {
	DefaultBatchSize      int
	SessionTTL            time.Duration
	MaxAdapterConcurrency int
	DefaultAdapterTimeout time.Duration
	DismissedRetention    time.Duration
	FallbackApplied       bool
}

// LoadServerConfigFromEnv loads the feed server's environment knobs,
// applying safe defaults and logging a warning for each value that fails
// validation rather than failing startup.
func LoadServerConfigFromEnv() ServerConfig {
	cfg := ServerConfig{}

	batchSize := LoadEnvInt("FEED_DEFAULT_BATCH_SIZE", 20, func(v int) error {
		return ValidateIntRange(v, 1, 200)
	})
	cfg.DefaultBatchSize = batchSize.Value.(int)

	sessionTTL := LoadEnvDuration("FEED_SESSION_TTL", 2*time.Hour, ValidatePositiveDuration)
	cfg.SessionTTL = sessionTTL.Value.(time.Duration)

	maxConcurrency := LoadEnvInt("FEED_MAX_ADAPTER_CONCURRENCY", 16, func(v int) error {
		return ValidateIntRange(v, 1, 128)
	})
	cfg.MaxAdapterConcurrency = maxConcurrency.Value.(int)

	adapterTimeout := LoadEnvDuration("FEED_DEFAULT_ADAPTER_TIMEOUT", 5*time.Second, ValidatePositiveDuration)
	cfg.DefaultAdapterTimeout = adapterTimeout.Value.(time.Duration)

	dismissedRetention := LoadEnvDuration("FEED_DISMISSED_RETENTION", 30*24*time.Hour, ValidatePositiveDuration)
	cfg.DismissedRetention = dismissedRetention.Value.(time.Duration)

	for _, r := range []ConfigLoadResult{batchSize, sessionTTL, maxConcurrency, adapterTimeout, dismissedRetention} {
		if r.FallbackApplied {
			cfg.FallbackApplied = true
			for _, w := range r.Warnings {
				slog.Warn("feed server configuration fallback", slog.String("warning", w))
			}
		}
	}

	return cfg
}
