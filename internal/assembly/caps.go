package assembly

import "catchup-feed/internal/domain/entity"

// pickWithCaps walks items in their given order and greedily picks up to
// limit of them, skipping any item that would push its source (or
// subsource, when configured) past its per-batch cap. A zero/absent cap
// means unlimited; diversityCap supplies a fallback per-source cap when the
// tier's selection pipeline asks for diversity but the recipe sets none.
func pickWithCaps(items []entity.FeedItem, limit int, sources map[string]entity.SourceRecipe, diversityCap int) []entity.FeedItem {
	if limit <= 0 {
		return nil
	}
	sourceCount := map[string]int{}
	subsourceCount := map[string]int{}
	out := make([]entity.FeedItem, 0, limit)

	for _, item := range items {
		if len(out) >= limit {
			break
		}
		cap := diversityCap
		if sr, ok := sources[item.Source]; ok && sr.MaxPerBatch > 0 {
			cap = sr.MaxPerBatch
		}
		if cap > 0 && sourceCount[item.Source] >= cap {
			continue
		}
		if sub := item.Subsource; sub != "" {
			if sr, ok := sources[item.Source]; ok {
				if ss, ok := sr.Subsources[sub]; ok && ss.MaxPerBatch > 0 {
					if subsourceCount[item.Source+"/"+sub] >= ss.MaxPerBatch {
						continue
					}
				}
			}
		}

		out = append(out, item)
		sourceCount[item.Source]++
		if item.Subsource != "" {
			subsourceCount[item.Source+"/"+item.Subsource]++
		}
	}
	return out
}

// diversityCap computes a fair per-source ceiling for a tier's output when
// diversity is requested but no explicit per-source cap is configured:
// no single source may claim more than an even share of the slots.
func diversityCap(slots int, items []entity.FeedItem) int {
	distinct := map[string]struct{}{}
	for _, item := range items {
		distinct[item.Source] = struct{}{}
	}
	if len(distinct) == 0 {
		return 0
	}
	cap := (slots + len(distinct) - 1) / len(distinct)
	if cap < 1 {
		cap = 1
	}
	return cap
}

// enforceMaxConsecutive scans left to right and ensures no run of
// identical keyFn values exceeds maxConsecutive: the first item that would
// violate it is swapped with the nearest later item (within window) whose
// key breaks the run, or dropped if no such item exists.
func enforceMaxConsecutive(items []entity.FeedItem, keyFn func(entity.FeedItem) string, maxConsecutive, window int) []entity.FeedItem {
	out := append([]entity.FeedItem(nil), items...)
	i := 0
	for i < len(out) {
		runStart := i
		key := keyFn(out[runStart])
		for i < len(out) && keyFn(out[i]) == key {
			i++
		}
		runLen := i - runStart
		if key == "" || runLen <= maxConsecutive {
			continue
		}
		violateIdx := runStart + maxConsecutive
		if swapAwayFrom(out, violateIdx, key, keyFn, window) {
			i = violateIdx
			continue
		}
		out = append(out[:violateIdx], out[violateIdx+1:]...)
		i = violateIdx
	}
	return out
}

// enforceMinSpacing ensures that two items sharing the same keyFn value are
// never closer together than minSpacingFn(key) positions, using the same
// swap-or-drop rule as enforceMaxConsecutive.
func enforceMinSpacing(items []entity.FeedItem, keyFn func(entity.FeedItem) string, minSpacingFn func(string) int, window int) []entity.FeedItem {
	out := append([]entity.FeedItem(nil), items...)
	lastIdx := map[string]int{}
	i := 0
	for i < len(out) {
		key := keyFn(out[i])
		if key == "" {
			i++
			continue
		}
		minSpacing := minSpacingFn(key)
		if prev, ok := lastIdx[key]; ok && minSpacing > 0 && i-prev < minSpacing {
			if swapAwayFrom(out, i, key, keyFn, window) {
				key = keyFn(out[i])
			} else {
				out = append(out[:i], out[i+1:]...)
				continue
			}
		}
		lastIdx[key] = i
		i++
	}
	return out
}

func swapAwayFrom(items []entity.FeedItem, idx int, conflictKey string, keyFn func(entity.FeedItem) string, window int) bool {
	end := idx + window
	if end > len(items) {
		end = len(items)
	}
	for j := idx + 1; j < end; j++ {
		if keyFn(items[j]) != conflictKey {
			items[idx], items[j] = items[j], items[idx]
			return true
		}
	}
	return false
}

// enforceCaps drops the lowest-priority / oldest excess items for any key
// whose occurrence count exceeds capFn(key).
func enforceCaps(items []entity.FeedItem, keyFn func(entity.FeedItem) string, capFn func(string) int) []entity.FeedItem {
	groups := map[string][]int{}
	for i, item := range items {
		key := keyFn(item)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], i)
	}

	drop := map[int]bool{}
	for key, idxs := range groups {
		limit := capFn(key)
		if limit <= 0 || len(idxs) <= limit {
			continue
		}
		ranked := append([]int(nil), idxs...)
		rankLess := func(a, b int) bool {
			ia, ib := items[ranked[a]], items[ranked[b]]
			if ia.Priority != ib.Priority {
				return ia.Priority < ib.Priority
			}
			return tsOrZero(ia) < tsOrZero(ib)
		}
		insertionSortIdx(ranked, rankLess)
		excess := len(ranked) - limit
		for _, idx := range ranked[:excess] {
			drop[idx] = true
		}
	}

	out := make([]entity.FeedItem, 0, len(items))
	for i, item := range items {
		if !drop[i] {
			out = append(out, item)
		}
	}
	return out
}

// insertionSortIdx sorts idx in place by less; small groups only (bounded
// by per-batch caps), so an O(n^2) sort keeps the dependency surface tiny.
func insertionSortIdx(idx []int, less func(a, b int) bool) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}
