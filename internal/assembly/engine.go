package assembly

import (
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/metrics"
)

// spacingWindow bounds how far the spacing-enforcement passes will look
// ahead for a swap candidate before giving up and dropping the item.
const spacingWindow = 5

// Options carries the per-request inputs the engine needs beyond the pool
// items and recipe: the session's deterministic random seed (for
// library/scrapbook ordering that must stay stable across pagination), how
// long the session has been active (for legacy decay), the scrapbook's
// recently-shown buffer, and the current time (for compass staleness).
type Options struct {
	SessionSeed    int64
	SessionMinutes float64
	RecentlyShown  map[string]bool
	Now            time.Time
}

// Assemble runs the full tier assembly pipeline: slot allocation (or legacy
// decay), per-tier filter/sort/pick, interleaving, and spacing enforcement.
// It never fabricates items — an under-delivered pool yields a shorter
// batch.
func Assemble(items []entity.FeedItem, recipe entity.ScrollRecipe, opts Options) []entity.FeedItem {
	start := time.Now()
	batchSize := recipe.BatchSize
	if batchSize <= 0 {
		batchSize = entity.DefaultScrollRecipe().BatchSize
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	byTier := groupByTier(items)
	wireSelected := selectWire(byTier[entity.TierWire], recipe.Tiers[entity.TierWire], recipe.WireSlots())
	librarySelected := selectLibrary(byTier[entity.TierLibrary], recipe.Tiers[entity.TierLibrary], recipe.Tiers[entity.TierLibrary].Allocation, opts.SessionSeed)
	scrapbookSelected := selectScrapbook(byTier[entity.TierScrapbook], recipe.Tiers[entity.TierScrapbook], recipe.Tiers[entity.TierScrapbook].Allocation, opts.SessionSeed, opts.RecentlyShown)
	compassSelected := selectCompass(byTier[entity.TierCompass], recipe.Tiers[entity.TierCompass], recipe.Tiers[entity.TierCompass].Allocation, opts.Now)
	groundingCombined := roundRobin(librarySelected, scrapbookSelected, compassSelected)

	var sequence []entity.FeedItem
	if !recipe.HasExplicitAllocations() && recipe.Decay != nil {
		sequence = applyDecay(wireSelected, groundingCombined, *recipe.Decay, opts.SessionMinutes, batchSize)
	} else {
		groundingSlots := recipe.GroundingSlots()
		if len(groundingCombined) > groundingSlots {
			groundingCombined = groundingCombined[:groundingSlots]
		}
		sequence = interleave(wireSelected, groundingCombined, batchSize, groundingSlots)
	}

	batch := enforceSpacing(sequence, recipe)
	if len(batch) > batchSize {
		batch = batch[:batchSize]
	}

	metrics.RecordAssembly(time.Since(start), len(batch))
	return batch
}

// enforceSpacing runs the four deterministic passes in order: global
// max-consecutive, per-source max-per-batch, per-source min-spacing, then
// per-subsource caps and spacing.
func enforceSpacing(items []entity.FeedItem, recipe entity.ScrollRecipe) []entity.FeedItem {
	caps := buildSourceCaps(recipe)

	maxConsecutive := recipe.Spacing.MaxConsecutive
	if maxConsecutive <= 0 {
		maxConsecutive = 1
	}
	before := len(items)
	items = enforceMaxConsecutive(items, itemSourceKey, maxConsecutive, spacingWindow)
	metrics.RecordSpacingDrop("max_consecutive", before-len(items))

	before = len(items)
	items = enforceCaps(items, itemSourceKey, func(key string) int {
		return caps.bySource[key].MaxPerBatch
	})
	metrics.RecordSpacingDrop("source_max_per_batch", before-len(items))

	before = len(items)
	items = enforceMinSpacing(items, itemSourceKey, func(key string) int {
		return caps.bySource[key].MinSpacing
	}, spacingWindow)
	metrics.RecordSpacingDrop("source_min_spacing", before-len(items))

	before = len(items)
	items = enforceCaps(items, itemSubsourceKey, func(key string) int {
		return caps.bySubsource[key].MaxPerBatch
	})
	items = enforceMinSpacing(items, itemSubsourceKey, func(key string) int {
		return caps.bySubsource[key].MinSpacing
	}, spacingWindow)
	metrics.RecordSpacingDrop("subsource", before-len(items))

	return items
}
