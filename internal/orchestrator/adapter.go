// Package orchestrator fans a list of query configs out to their source
// adapters in parallel, isolating per-source failures and normalizing
// results into FeedItems.
package orchestrator

import (
	"context"

	"catchup-feed/internal/domain/entity"
)

// Adapter is the single method every source implementation must provide.
// Adapters own nothing the core depends on after returning items: a
// RawItem slice is the entire handoff.
type Adapter interface {
	FetchItems(ctx context.Context, config entity.QueryConfig) ([]entity.RawItem, error)
}

// SubsourceFilterer is an optional capability an adapter may implement when
// it can narrow its own fetch to a set of subsources (e.g. specific
// subreddits) instead of relying on post-filtering by the Normalizer.
//
// Re-architected from a duck-typed `typeof adapter.resolveSiblings ===
// 'function'` check into an explicit capability interface, per the source
// orchestration redesign guidance: adapters declare support, the
// orchestrator queries it directly rather than probing for method shape.
type SubsourceFilterer interface {
	Supports(capability string) bool
	FilterSubsources(subsources []string)
}

// SubsourceFilterCapability is the capability string SubsourceFilterer
// implementations should respond true to from Supports.
const SubsourceFilterCapability = "subsourceFilter"

// MarkReader is an optional capability for adapters backed by a source with
// its own upstream read/unread state (e.g. FreshRSS). When present, the
// Pool Manager proxies dismissals for that source's items here instead of
// writing them to the Dismissed-Items Store.
type MarkReader interface {
	MarkRead(ctx context.Context, localIDs []string) error
}

// Registry maps a QueryConfig's Type to the Adapter that serves it.
type Registry map[string]Adapter

// Lookup returns the adapter registered for sourceType, or false if none is
// registered.
func (r Registry) Lookup(sourceType string) (Adapter, bool) {
	a, ok := r[sourceType]
	return a, ok
}
