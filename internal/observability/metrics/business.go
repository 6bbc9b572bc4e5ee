package metrics

import "time"

// RecordItemsFetched records the number of normalized items a source adapter returned.
func RecordItemsFetched(source, tier string, count int) {
	if count <= 0 {
		return
	}
	ItemsFetchedTotal.WithLabelValues(source, tier).Add(float64(count))
}

// RecordItemDropped records a single raw item rejected during normalization.
func RecordItemDropped(source, reason string) {
	ItemsDroppedTotal.WithLabelValues(source, reason).Inc()
}

// RecordAdapterFetch records the duration of one adapter worker's fetch call.
func RecordAdapterFetch(source string, duration time.Duration) {
	AdapterFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordAdapterError records an adapter failure, classified by kind
// (e.g. "timeout", "error", "panic", "breaker_open").
func RecordAdapterError(source, kind string) {
	AdapterErrorsTotal.WithLabelValues(source, kind).Inc()
}

// RecordOrchestratorFanout records the wall-clock time of one full orchestrator
// fan-out across all selected source configs.
func RecordOrchestratorFanout(duration time.Duration) {
	OrchestratorFanoutDuration.Observe(duration.Seconds())
}

// RecordAssembly records the duration and resulting size of one assembled batch.
func RecordAssembly(duration time.Duration, batchSize int) {
	AssemblyDuration.Observe(duration.Seconds())
	AssemblyBatchSize.Observe(float64(batchSize))
}

// RecordSpacingDrop records items dropped by a spacing enforcement pass.
func RecordSpacingDrop(pass string, count int) {
	if count <= 0 {
		return
	}
	SpacingDropsTotal.WithLabelValues(pass).Add(float64(count))
}

// UpdatePoolSize sets the current pool size gauge for a tier.
func UpdatePoolSize(tier string, size int) {
	PoolSize.WithLabelValues(tier).Set(float64(size))
}

// UpdateActiveSessions sets the number of live session pools.
func UpdateActiveSessions(count int) {
	ActiveSessions.Set(float64(count))
}

// RecordSessionExpired records one session pool reaped by the idle-TTL sweep.
func RecordSessionExpired() {
	SessionsExpiredTotal.Inc()
}

// RecordDismissal records a dismissed item, classified by destination
// ("store" for a new dismissed-record write, "upstream_read" when the
// adapter's MarkReader capability handled it instead).
func RecordDismissal(destination string) {
	DismissalsTotal.WithLabelValues(destination).Inc()
}
