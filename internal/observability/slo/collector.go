package slo

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Collector periodically recomputes the SLO gauges from the
// http_requests_total counter vector already maintained by the metrics
// package, following the calculation sketched in this package's own doc
// comments (total requests vs. 5xx requests).
type Collector struct {
	Gatherer prometheus.Gatherer
	Interval time.Duration
}

// NewCollector returns a Collector reading from the default Prometheus
// registry on the given interval.
func NewCollector(interval time.Duration) *Collector {
	return &Collector{Gatherer: prometheus.DefaultGatherer, Interval: interval}
}

// Run recomputes the SLO gauges once per Interval until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	c.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Collector) tick() {
	families, err := c.Gatherer.Gather()
	if err != nil {
		return
	}

	var total, errors float64
	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			count := m.GetCounter().GetValue()
			total += count
			if isErrorStatus(m.GetLabel()) {
				errors += count
			}
		}
	}

	if total == 0 {
		return
	}
	UpdateAvailability((total - errors) / total)
	UpdateErrorRate(errors / total)
}

func isErrorStatus(labels []*dto.LabelPair) bool {
	for _, lp := range labels {
		if lp.GetName() == "status" {
			return strings.HasPrefix(lp.GetValue(), "5")
		}
	}
	return false
}
