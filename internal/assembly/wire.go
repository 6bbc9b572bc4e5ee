package assembly

import (
	"sort"

	"catchup-feed/internal/domain/entity"
)

// selectWire filters out items already excluded by the Pool Manager (the
// dismissed set), sorts by timestamp descending, and greedily picks up to
// slots honoring per-source and per-subsource caps. When the tier's
// selection enables Diversity, sources without an explicit cap fall back to
// an even per-source share of slots so no single source can dominate.
func selectWire(items []entity.FeedItem, tr entity.TierRecipe, slots int) []entity.FeedItem {
	if slots <= 0 {
		return nil
	}
	unread := make([]entity.FeedItem, 0, len(items))
	for _, item := range items {
		if isRead(item) {
			continue
		}
		unread = append(unread, item)
	}

	sorted := append([]entity.FeedItem(nil), unread...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tsOrZero(sorted[i]) > tsOrZero(sorted[j])
	})

	cap := 0
	if tr.Selection.Diversity {
		cap = diversityCap(slots, sorted)
	}
	return pickWithCaps(sorted, slots, tr.Sources, cap)
}
