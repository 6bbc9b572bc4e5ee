package assembly

import (
	"math"

	"catchup-feed/internal/domain/entity"
)

// applyDecay implements the legacy ratio-based interleave used when a
// recipe has no explicit tier allocations: one grounding item is inserted
// every `ratio` wire items, where ratio decays toward minRatio as the
// session goes on.
//
//	ratio = max(minRatio, floor(groundingRatio * decayRate^(sessionMinutes/5)))
func applyDecay(wireItems, groundingItems []entity.FeedItem, recipe entity.DecayRecipe, sessionMinutes float64, batchSize int) []entity.FeedItem {
	ratio := decayRatio(recipe, sessionMinutes)

	out := make([]entity.FeedItem, 0, batchSize)
	gi := 0
	for wi, item := range wireItems {
		if len(out) >= batchSize {
			break
		}
		out = append(out, item)
		if (wi+1)%ratio == 0 && gi < len(groundingItems) && len(out) < batchSize {
			out = append(out, groundingItems[gi])
			gi++
		}
	}
	for len(out) < batchSize && gi < len(groundingItems) {
		out = append(out, groundingItems[gi])
		gi++
	}
	return out
}

func decayRatio(recipe entity.DecayRecipe, sessionMinutes float64) int {
	decayed := recipe.GroundingRatio * math.Pow(recipe.DecayRate, sessionMinutes/5)
	ratio := math.Max(recipe.MinRatio, math.Floor(decayed))
	if ratio < 1 {
		ratio = 1
	}
	return int(ratio)
}
