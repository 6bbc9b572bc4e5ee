package assembly

import "catchup-feed/internal/domain/entity"

// scrapbookWindow is the bucket size used to promote anniversary items to
// the front of an otherwise-random neighborhood, rather than sorting them
// strictly first across the whole tier.
const scrapbookWindow = 5

// selectScrapbook excludes items already surfaced in the recently-shown
// buffer, randomizes the remainder with a session-seeded order, then
// promotes anniversary items ("yearsAgo" meta) to the front of each small
// window of that random order before picking up to allocation.
func selectScrapbook(items []entity.FeedItem, tr entity.TierRecipe, allocation int, sessionSeed int64, recentlyShown map[string]bool) []entity.FeedItem {
	if allocation <= 0 {
		return nil
	}
	candidates := make([]entity.FeedItem, 0, len(items))
	for _, item := range items {
		if recentlyShown[item.ID] {
			continue
		}
		candidates = append(candidates, item)
	}

	stableSortByScoreAsc(candidates, func(item entity.FeedItem) uint64 {
		return seededScore(sessionSeed, item.ID)
	})

	for start := 0; start < len(candidates); start += scrapbookWindow {
		end := start + scrapbookWindow
		if end > len(candidates) {
			end = len(candidates)
		}
		promoteAnniversaries(candidates[start:end])
	}

	return pickWithCaps(candidates, allocation, tr.Sources, 0)
}

// promoteAnniversaries stable-partitions a small window so anniversary
// items come first, preserving the random relative order of everything
// else.
func promoteAnniversaries(window []entity.FeedItem) {
	var anniversaries, rest []entity.FeedItem
	for _, item := range window {
		if hasAnniversary(item) {
			anniversaries = append(anniversaries, item)
		} else {
			rest = append(rest, item)
		}
	}
	sorted := append(anniversaries, rest...)
	copy(window, sorted)
}

func hasAnniversary(item entity.FeedItem) bool {
	v, ok := item.Meta["yearsAgo"]
	if !ok {
		return false
	}
	switch n := v.(type) {
	case int:
		return n > 0
	case int64:
		return n > 0
	case float64:
		return n > 0
	default:
		return false
	}
}
