package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/normalize"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/observability/tracing"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency bounds the number of adapter workers dispatched in
// parallel when the caller has not configured one.
const DefaultMaxConcurrency = 16

// DefaultAdapterTimeout is the per-adapter fallback timeout.
const DefaultAdapterTimeout = 5 * time.Second

// Orchestrator fans a list of QueryConfigs out to their registered
// adapters, in parallel, with per-source timeouts, circuit breaking, retry,
// and full error isolation: a single adapter's failure never fails the
// call, it only produces a Warning.
type Orchestrator struct {
	Registry       Registry
	MaxConcurrency int
	DefaultTimeout time.Duration
	PerTypeTimeout map[string]time.Duration
	RetryConfig    retry.Config
	breakersMu     sync.Mutex
	breakers       map[string]*circuitbreaker.CircuitBreaker
}

// New builds an Orchestrator with sensible default concurrency and
// timeout knobs, ready for per-type timeout overrides to be set afterward.
func New(registry Registry) *Orchestrator {
	return &Orchestrator{
		Registry:       registry,
		MaxConcurrency: DefaultMaxConcurrency,
		DefaultTimeout: DefaultAdapterTimeout,
		PerTypeTimeout: map[string]time.Duration{},
		RetryConfig:    retry.FeedFetchConfig(),
		breakers:       map[string]*circuitbreaker.CircuitBreaker{},
	}
}

// Fetch dispatches one worker per selected QueryConfig, bounded by
// MaxConcurrency, and returns every item any adapter produced plus the
// warnings accumulated from adapters that failed, timed out, or panicked.
// A cancelled ctx stops dispatching new work and returns immediately with
// whatever has already arrived.
func (o *Orchestrator) Fetch(ctx context.Context, configs []entity.QueryConfig, filter entity.Filter) ([]entity.FeedItem, []entity.Warning) {
	ctx, span := tracing.GetTracer().Start(ctx, "orchestrator.Fetch")
	defer span.End()

	start := time.Now()
	selected := o.selectConfigs(configs, filter)
	span.SetAttributes(attribute.Int("orchestrator.selected_sources", len(selected)))

	var (
		mu       sync.Mutex
		items    []entity.FeedItem
		warnings []entity.Warning
	)

	sem := make(chan struct{}, o.maxConcurrency())
	eg := &errgroup.Group{}

	for _, cfg := range selected {
		cfg := cfg
		eg.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			defer func() { <-sem }()

			fetched, warn := o.fetchOne(ctx, cfg, filter)

			mu.Lock()
			items = append(items, fetched...)
			if warn != nil {
				warnings = append(warnings, *warn)
			}
			mu.Unlock()
			return nil
		})
	}

	// Worker errors are absorbed as warnings inside fetchOne; Wait never
	// returns a non-nil error, it only blocks until every worker completes
	// or the caller's context is cancelled.
	_ = eg.Wait()

	metrics.RecordOrchestratorFanout(time.Since(start))
	span.SetAttributes(
		attribute.Int("orchestrator.items", len(items)),
		attribute.Int("orchestrator.warnings", len(warnings)),
	)

	if ctx.Err() != nil {
		warnings = append(warnings, entity.Warning{Kind: "cancelled", Message: ctx.Err().Error()})
	}

	return items, warnings
}

// fetchOne runs one adapter call end to end: capability-aware subsource
// pass-through, per-adapter timeout, retry with backoff inside a
// per-source-type circuit breaker, panic recovery, and normalization.
func (o *Orchestrator) fetchOne(ctx context.Context, cfg entity.QueryConfig, filter entity.Filter) (items []entity.FeedItem, warning *entity.Warning) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordAdapterError(cfg.Type, "panic")
			warning = &entity.Warning{Source: cfg.Type, Kind: "panic", Message: fmt.Sprintf("%v", r)}
			items = nil
		}
	}()

	adapter, ok := o.Registry.Lookup(cfg.Type)
	if !ok {
		metrics.RecordAdapterError(cfg.Type, "unregistered")
		return nil, &entity.Warning{Source: cfg.Type, Kind: "unregistered", Message: "no adapter registered for type " + cfg.Type}
	}

	var subsources []string
	if filter.Kind == entity.FilterKindSource && cfg.Type == filter.SourceType {
		subsources = filter.Subsources
		if sf, ok := adapter.(SubsourceFilterer); ok && sf.Supports(SubsourceFilterCapability) {
			sf.FilterSubsources(subsources)
		}
	}

	adapterCtx, cancel := context.WithTimeout(ctx, o.timeoutFor(cfg.Type))
	defer cancel()

	breaker := o.breakerFor(cfg.Type)
	fetchStart := time.Now()

	var raws []entity.RawItem
	_, err := breaker.Execute(func() (interface{}, error) {
		return nil, retry.WithBackoff(adapterCtx, o.RetryConfig, func() error {
			r, fetchErr := adapter.FetchItems(adapterCtx, cfg)
			if fetchErr != nil {
				return fetchErr
			}
			raws = r
			return nil
		})
	})
	metrics.RecordAdapterFetch(cfg.Type, time.Since(fetchStart))

	if err != nil {
		kind := "error"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			kind = "breaker_open"
		case errors.Is(adapterCtx.Err(), context.DeadlineExceeded):
			kind = "timeout"
		}
		metrics.RecordAdapterError(cfg.Type, kind)
		return nil, &entity.Warning{Source: cfg.Type, Kind: kind, Message: err.Error()}
	}

	// Normalizer applies post-filtering when the adapter could not honor
	// the subsource restriction itself.
	postFilterSubsources := subsources
	if sf, ok := adapter.(SubsourceFilterer); ok && sf.Supports(SubsourceFilterCapability) {
		postFilterSubsources = nil
	}

	normalized := normalize.Items(raws, cfg, postFilterSubsources)
	metrics.RecordItemsFetched(cfg.Type, string(cfg.Tier), len(normalized))
	return normalized, nil
}

// selectConfigs narrows the dispatch list when a source/tier/query filter
// is active; a query-kind filter still needs every config whose name
// matches (normally exactly one).
func (o *Orchestrator) selectConfigs(configs []entity.QueryConfig, filter entity.Filter) []entity.QueryConfig {
	if !filter.Active() {
		return configs
	}
	out := make([]entity.QueryConfig, 0, len(configs))
	for _, c := range configs {
		switch filter.Kind {
		case entity.FilterKindTier:
			if c.Tier == filter.Tier {
				out = append(out, c)
			}
		case entity.FilterKindSource:
			if c.Type == filter.SourceType {
				out = append(out, c)
			}
		case entity.FilterKindQuery:
			if c.Name == filter.QueryName {
				out = append(out, c)
			}
		}
	}
	return out
}

func (o *Orchestrator) maxConcurrency() int {
	if o.MaxConcurrency > 0 {
		return o.MaxConcurrency
	}
	return DefaultMaxConcurrency
}

func (o *Orchestrator) timeoutFor(sourceType string) time.Duration {
	if d, ok := o.PerTypeTimeout[sourceType]; ok && d > 0 {
		return d
	}
	if o.DefaultTimeout > 0 {
		return o.DefaultTimeout
	}
	return DefaultAdapterTimeout
}

func (o *Orchestrator) breakerFor(sourceType string) *circuitbreaker.CircuitBreaker {
	o.breakersMu.Lock()
	defer o.breakersMu.Unlock()
	if cb, ok := o.breakers[sourceType]; ok {
		return cb
	}
	cb := circuitbreaker.New(circuitbreaker.SourceFetchConfig(sourceType))
	o.breakers[sourceType] = cb
	return cb
}
