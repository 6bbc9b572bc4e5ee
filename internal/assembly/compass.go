package assembly

import (
	"sort"
	"time"

	"catchup-feed/internal/domain/entity"
)

// selectCompass drops items older than their source's freshness window (a
// source with no configured Freshness is never aged out), sorts by priority
// descending with a stable source-name tiebreak, and picks up to
// allocation honoring per-source caps.
func selectCompass(items []entity.FeedItem, tr entity.TierRecipe, allocation int, now time.Time) []entity.FeedItem {
	if allocation <= 0 {
		return nil
	}
	fresh := make([]entity.FeedItem, 0, len(items))
	for _, item := range items {
		if isStale(item, tr.Selection.Freshness, now) {
			continue
		}
		fresh = append(fresh, item)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].Priority != fresh[j].Priority {
			return fresh[i].Priority > fresh[j].Priority
		}
		return fresh[i].Source < fresh[j].Source
	})

	return pickWithCaps(fresh, allocation, tr.Sources, 0)
}

func isStale(item entity.FeedItem, freshnessSeconds int, now time.Time) bool {
	if freshnessSeconds <= 0 || item.Timestamp == nil {
		return false
	}
	return now.Sub(*item.Timestamp) > time.Duration(freshnessSeconds)*time.Second
}
