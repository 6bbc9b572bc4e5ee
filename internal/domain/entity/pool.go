package entity

import "time"

// SessionKey identifies one (user, sessionID) pair that owns a PoolState.
type SessionKey struct {
	UserID    string
	SessionID string
}

// PoolState is the in-memory per-session buffer of unconsumed FeedItems.
// It is mutated exclusively by its owning Pool Manager; callers only ever
// observe immutable snapshots returned from GetBatch.
type PoolState struct {
	Items       []FeedItem
	Consumed    map[string]struct{}
	Cursor      int64
	CreatedAt   time.Time
	LastTouched time.Time
}

// NewPoolState returns an empty, freshly-seeded PoolState.
func NewPoolState(now time.Time) *PoolState {
	return &PoolState{
		Items:       nil,
		Consumed:    make(map[string]struct{}),
		Cursor:      0,
		CreatedAt:   now,
		LastTouched: now,
	}
}

// Idle reports whether the pool has had no activity for longer than ttl.
func (p *PoolState) Idle(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.LastTouched) > ttl
}

// Remaining returns the count of items in the pool not yet consumed.
func (p *PoolState) Remaining() int {
	n := 0
	for _, item := range p.Items {
		if _, done := p.Consumed[item.ID]; !done {
			n++
		}
	}
	return n
}

// Warning is a structured, non-fatal problem surfaced alongside a batch
// (e.g. an adapter timeout, or a skipped malformed query config).
type Warning struct {
	Source  string
	Kind    string
	Message string
}

// Batch is the Pool Manager's response to GetBatch.
type Batch struct {
	Items      []FeedItem
	NextCursor int64
	HasMore    bool
	Warnings   []Warning
}

// FilterKind enumerates the resolved shape of a filter expression.
type FilterKind string

const (
	FilterKindNone   FilterKind = ""
	FilterKindTier   FilterKind = "tier"
	FilterKindSource FilterKind = "source"
	FilterKindQuery  FilterKind = "query"
)

// Filter is the resolved result of a filter expression, produced by the
// Filter Resolver. A zero-value Filter (Kind == FilterKindNone) means no
// filter is active and full tier assembly applies.
type Filter struct {
	Kind       FilterKind
	Tier       Tier
	SourceType string
	Subsources []string
	QueryName  string
}

// Active reports whether this filter narrows the batch (and therefore
// bypasses the Tier Assembly Engine).
func (f Filter) Active() bool {
	return f.Kind != FilterKindNone
}
