package pagination

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts the total number of scroll requests.
	// Labels: status (HTTP status code), has_more (whether the pool had more items)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_scroll_requests_total",
			Help: "Total number of scroll pagination requests",
		},
		[]string{"status", "has_more"},
	)

	// DurationSeconds tracks request duration distribution.
	// Labels: operation (handler, pool, orchestrator)
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_scroll_duration_seconds",
			Help:    "Scroll request duration distribution",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
		},
		[]string{"operation"},
	)

	// ErrorsTotal counts pagination errors by type.
	// Labels: type (validation, cursor, timeout)
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_scroll_errors_total",
			Help: "Total number of scroll pagination errors",
		},
		[]string{"type"},
	)
)

// RecordRequest records a scroll request metric.
func RecordRequest(statusCode int, hasMore bool) {
	RequestsTotal.WithLabelValues(
		fmt.Sprintf("%d", statusCode),
		fmt.Sprintf("%t", hasMore),
	).Inc()
}

// RecordDuration records operation duration in seconds.
func RecordDuration(operation string, duration float64) {
	DurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error metric.
// errorType should be one of: "validation", "cursor", "timeout"
func RecordError(errorType string) {
	ErrorsTotal.WithLabelValues(errorType).Inc()
}
