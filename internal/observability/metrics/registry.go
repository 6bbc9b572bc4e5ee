// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Source orchestration metrics track per-source fan-out behavior.
var (
	// ItemsFetchedTotal counts normalized items returned by a source adapter.
	ItemsFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_fetched_total",
			Help: "Total number of items fetched from a source adapter",
		},
		[]string{"source", "tier"},
	)

	// ItemsDroppedTotal counts items rejected by the normalizer.
	ItemsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_dropped_total",
			Help: "Total number of raw items dropped during normalization",
		},
		[]string{"source", "reason"},
	)

	// AdapterFetchDuration measures how long a single adapter worker took.
	AdapterFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_adapter_fetch_duration_seconds",
			Help:    "Time taken for a single source adapter fetch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"source"},
	)

	// AdapterErrorsTotal counts adapter failures by kind (timeout, panic, error, breaker_open).
	AdapterErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_adapter_errors_total",
			Help: "Total number of source adapter failures",
		},
		[]string{"source", "kind"},
	)

	// OrchestratorFanoutDuration measures a full Fetch() call across all configs.
	OrchestratorFanoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_orchestrator_fanout_duration_seconds",
			Help:    "Time taken for one orchestrator fan-out across all selected sources",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)
)

// Assembly metrics track Tier Assembly Engine behavior.
var (
	// AssemblyDuration measures time spent building one batch.
	AssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_assembly_duration_seconds",
			Help:    "Time taken to assemble one interleaved batch",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	// AssemblyBatchSize records the final length of an assembled batch.
	AssemblyBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_assembly_batch_size",
			Help:    "Number of items in an assembled batch",
			Buckets: []float64{1, 5, 10, 15, 20, 30, 50, 75, 100},
		},
	)

	// SpacingDropsTotal counts items dropped by spacing enforcement passes.
	SpacingDropsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_spacing_drops_total",
			Help: "Total number of items dropped during spacing enforcement",
		},
		[]string{"pass"}, // pass: max_consecutive, max_per_batch, min_spacing, subsource
	)
)

// Pool metrics track Pool Manager state.
var (
	// PoolSize tracks the current number of unconsumed items across all sessions.
	PoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feed_pool_size",
			Help: "Number of unconsumed items currently held in a session pool",
		},
		[]string{"tier"},
	)

	// ActiveSessions tracks the number of live PoolState entries.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feed_active_sessions",
			Help: "Number of active (non-expired) session pools",
		},
	)

	// SessionsExpiredTotal counts sessions reaped by the idle-TTL sweep.
	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_sessions_expired_total",
			Help: "Total number of session pools reaped due to idle TTL",
		},
	)

	// DismissalsTotal counts items dismissed, split by destination.
	DismissalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_dismissals_total",
			Help: "Total number of items dismissed",
		},
		[]string{"destination"}, // destination: store, upstream_read
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
