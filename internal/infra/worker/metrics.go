package worker

import (
	"catchup-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReaperMetrics provides Prometheus metrics for the standalone idle-session
// reaper process. It embeds the standard ConfigMetrics for configuration
// monitoring and adds sweep-specific metrics.
type ReaperMetrics struct {
	*config.ConfigMetrics

	// SweepRunsTotal counts the total number of reaper sweeps.
	// Labels: status (success, failure)
	SweepRunsTotal *prometheus.CounterVec

	// SweepDurationSeconds measures the duration of a reaper sweep.
	SweepDurationSeconds prometheus.Histogram

	// SweepSessionsReapedTotal counts sessions dropped across all sweeps.
	SweepSessionsReapedTotal prometheus.Counter

	// SweepLastSuccessTimestamp records the Unix timestamp of the last
	// successful sweep.
	SweepLastSuccessTimestamp prometheus.Gauge
}

// NewReaperMetrics creates a new ReaperMetrics instance with all metrics
// initialized and registered via promauto.
func NewReaperMetrics() *ReaperMetrics {
	return &ReaperMetrics{
		ConfigMetrics: config.NewConfigMetrics("reaper"),

		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_reaper_sweep_runs_total",
			Help: "Total number of idle-session reaper sweeps by status (success/failure)",
		}, []string{"status"}),

		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "feed_reaper_sweep_duration_seconds",
			Help:    "Duration of an idle-session reaper sweep in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		SweepSessionsReapedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "feed_reaper_sessions_reaped_total",
			Help: "Total number of idle sessions dropped across all sweeps",
		}),

		SweepLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "feed_reaper_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful reaper sweep",
		}),
	}
}

// MustRegister is a no-op kept for call-site symmetry with config loading;
// metrics are auto-registered via promauto when created in NewReaperMetrics.
func (m *ReaperMetrics) MustRegister() {}

// RecordSweepRun increments the sweep run counter for the given status.
func (m *ReaperMetrics) RecordSweepRun(status string) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
}

// RecordSweepDuration observes the duration of a sweep in seconds.
func (m *ReaperMetrics) RecordSweepDuration(seconds float64) {
	m.SweepDurationSeconds.Observe(seconds)
}

// RecordSessionsReaped adds the number of sessions dropped in one sweep to
// the running total.
func (m *ReaperMetrics) RecordSessionsReaped(count int) {
	m.SweepSessionsReapedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful sweep.
func (m *ReaperMetrics) RecordLastSuccess() {
	m.SweepLastSuccessTimestamp.SetToCurrentTime()
}
