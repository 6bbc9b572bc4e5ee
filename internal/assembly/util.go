// Package assembly implements the Tier Assembly Engine: per-tier
// filter/sort/pick selection, ideal-position interleaving, and the
// deterministic spacing-enforcement passes that turn a raw pool of
// FeedItems into one ordered batch.
package assembly

import (
	"hash/fnv"
	"sort"

	"catchup-feed/internal/domain/entity"
)

func groupByTier(items []entity.FeedItem) map[entity.Tier][]entity.FeedItem {
	out := map[entity.Tier][]entity.FeedItem{
		entity.TierWire:      nil,
		entity.TierLibrary:   nil,
		entity.TierScrapbook: nil,
		entity.TierCompass:   nil,
	}
	for _, item := range items {
		out[item.Tier] = append(out[item.Tier], item)
	}
	return out
}

// seededScore derives a deterministic pseudo-random ordering key from a
// session seed and an item ID, so the same (seed, pool) always produces the
// same random order — required for stable pagination across requests.
func seededScore(seed int64, id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(seed >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// roundRobin interleaves several already-ordered queues fairly, preserving
// each queue's internal order, so no single grounding tier dominates the
// front of the combined sequence.
func roundRobin(queues ...[]entity.FeedItem) []entity.FeedItem {
	total := 0
	for _, q := range queues {
		total += len(q)
	}
	out := make([]entity.FeedItem, 0, total)
	idx := make([]int, len(queues))
	for {
		progressed := false
		for qi, q := range queues {
			if idx[qi] < len(q) {
				out = append(out, q[idx[qi]])
				idx[qi]++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

// isRead reports whether an adapter marked this item read via meta, the only
// channel the core treats as authoritative for a source's own read state.
func isRead(item entity.FeedItem) bool {
	read, ok := item.Meta["read"].(bool)
	return ok && read
}

func tsOrZero(item entity.FeedItem) (t int64) {
	if item.Timestamp == nil {
		return 0
	}
	return item.Timestamp.Unix()
}

// sourceCaps indexes a recipe's per-(tier,source) and per-(tier,source,
// subsource) spacing configuration for O(1) lookup during the enforcement
// passes.
type sourceCaps struct {
	bySource    map[string]entity.SourceRecipe
	bySubsource map[string]entity.SourceSpacing
}

func buildSourceCaps(recipe entity.ScrollRecipe) sourceCaps {
	sc := sourceCaps{
		bySource:    map[string]entity.SourceRecipe{},
		bySubsource: map[string]entity.SourceSpacing{},
	}
	for tier, tr := range recipe.Tiers {
		for source, sr := range tr.Sources {
			sc.bySource[sourceKey(tier, source)] = sr
			for sub, ss := range sr.Subsources {
				sc.bySubsource[subsourceKey(tier, source, sub)] = ss
			}
		}
	}
	return sc
}

func sourceKey(tier entity.Tier, source string) string {
	return string(tier) + "|" + source
}

func subsourceKey(tier entity.Tier, source, subsource string) string {
	return sourceKey(tier, source) + "|" + subsource
}

func itemSourceKey(item entity.FeedItem) string {
	return sourceKey(item.Tier, item.Source)
}

func itemSubsourceKey(item entity.FeedItem) string {
	if item.Subsource == "" {
		return ""
	}
	return subsourceKey(item.Tier, item.Source, item.Subsource)
}

// stableSortByScoreAsc sorts items ascending by the supplied score,
// preserving relative order among equal scores (Go's sort.SliceStable).
func stableSortByScoreAsc(items []entity.FeedItem, score func(entity.FeedItem) uint64) {
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i]) < score(items[j])
	})
}
