package entity

import "time"

// DismissedTTL is the default retention window for dismissed records before
// they are eligible for pruning.
const DismissedTTL = 30 * 24 * time.Hour

// DismissedRecord maps an item ID to the epoch second it was dismissed at.
// Records older than DismissedTTL are pruned on load.
type DismissedRecord map[string]int64

// Prune returns a copy of r with entries older than ttl relative to now
// removed. Prune is idempotent: Prune(Prune(r)) == Prune(r).
func (r DismissedRecord) Prune(now time.Time, ttl time.Duration) DismissedRecord {
	cutoff := now.Add(-ttl).Unix()
	pruned := make(DismissedRecord, len(r))
	for id, dismissedAt := range r {
		if dismissedAt >= cutoff {
			pruned[id] = dismissedAt
		}
	}
	return pruned
}

// Contains reports whether id is present (and therefore still within TTL,
// assuming r has already been pruned).
func (r DismissedRecord) Contains(id string) bool {
	_, ok := r[id]
	return ok
}
