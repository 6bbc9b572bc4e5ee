// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Source orchestration metrics (fetch counts, adapter errors, fan-out duration)
//   - Tier Assembly Engine metrics (assembly duration, batch size, spacing drops)
//   - Pool Manager metrics (pool size, active sessions, dismissals)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "catchup-feed/internal/observability/metrics"
//
//	func fetchSource(sourceType string) {
//	    start := time.Now()
//	    items := 10
//
//	    metrics.RecordItemsFetched(sourceType, "wire", items)
//	    metrics.RecordAdapterFetch(sourceType, time.Since(start))
//	}
package metrics
