package worker

import (
	"catchup-feed/internal/pkg/config"
	"fmt"
	"log/slog"
	"time"
)

// ReaperConfig holds the configuration for the standalone idle-session
// reaper process: the cron expression and timezone describe its sweep
// cadence for operators, while SweepInterval is what the ticker inside
// pool.Manager.StartReaper actually runs on.
//
// Configuration sources:
//   - Environment variables (loaded via LoadReaperConfigFromEnv)
//   - Default values (provided by DefaultReaperConfig)
type ReaperConfig struct {
	// CronSchedule documents the sweep cadence in cron notation for
	// operator dashboards and alerting rules. It is validated but not
	// itself used to schedule anything; SweepInterval drives the ticker.
	// Default: "*/15 * * * *" (every 15 minutes)
	CronSchedule string

	// Timezone is the IANA timezone name CronSchedule is interpreted in.
	// Default: "UTC"
	Timezone string

	// SweepInterval is the ticker interval pool.Manager.StartReaper runs
	// idle-session reaping on.
	// Must be positive (> 0)
	// Default: 15 minutes
	SweepInterval time.Duration

	// HealthPort is the port number for the reaper process's standalone
	// health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultReaperConfig returns a ReaperConfig with sensible default values.
func DefaultReaperConfig() ReaperConfig {
	return ReaperConfig{
		CronSchedule:  "*/15 * * * *",
		Timezone:      "UTC",
		SweepInterval: 15 * time.Minute,
		HealthPort:    9091,
	}
}

// Validate checks if the configuration values are valid, collecting every
// validation failure rather than stopping at the first.
func (c *ReaperConfig) Validate() error {
	var errors []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errors = append(errors, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.SweepInterval); err != nil {
		errors = append(errors, fmt.Errorf("sweep interval: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadReaperConfigFromEnv loads reaper configuration from environment
// variables with validation and automatic fallback to default values on
// failure. It never returns an error: an invalid value falls back to its
// default, is logged, and is counted in metrics.
//
// Environment variables:
//   - REAPER_CRON_SCHEDULE: cron expression (default: "*/15 * * * *")
//   - REAPER_TIMEZONE: IANA timezone name (default: "UTC")
//   - REAPER_SWEEP_INTERVAL: duration string, e.g. "15m" (default: 15m)
//   - REAPER_HEALTH_PORT: integer 1024-65535 (default: 9091)
func LoadReaperConfigFromEnv(logger *slog.Logger, metrics *ReaperMetrics) (*ReaperConfig, error) {
	cfg := DefaultReaperConfig()
	fallbackApplied := false

	result := config.LoadEnvWithFallback("REAPER_CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("cron_schedule")
		metrics.RecordFallback("cron_schedule", "default")
		for _, warning := range result.Warnings {
			logger.Warn("reaper configuration fallback applied",
				slog.String("field", "CronSchedule"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvWithFallback("REAPER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("timezone")
		metrics.RecordFallback("timezone", "default")
		for _, warning := range result.Warnings {
			logger.Warn("reaper configuration fallback applied",
				slog.String("field", "Timezone"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvDuration("REAPER_SWEEP_INTERVAL", cfg.SweepInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
	})
	cfg.SweepInterval = result.Value.(time.Duration)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("sweep_interval")
		metrics.RecordFallback("sweep_interval", "default")
		for _, warning := range result.Warnings {
			logger.Warn("reaper configuration fallback applied",
				slog.String("field", "SweepInterval"),
				slog.String("warning", warning))
		}
	}

	result = config.LoadEnvInt("REAPER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	if result.FallbackApplied {
		fallbackApplied = true
		metrics.RecordValidationError("health_port")
		metrics.RecordFallback("health_port", "default")
		for _, warning := range result.Warnings {
			logger.Warn("reaper configuration fallback applied",
				slog.String("field", "HealthPort"),
				slog.String("warning", warning))
		}
	}

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
