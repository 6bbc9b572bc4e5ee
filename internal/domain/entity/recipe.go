package entity

// SortMode selects the ordering strategy a tier's selection pipeline applies
// before picking items into the batch.
type SortMode string

const (
	SortTimestampDesc SortMode = "timestamp_desc"
	SortRandom        SortMode = "random"
	SortPriority      SortMode = "priority"
)

// SourceSpacing caps how densely one source (or subsource) may appear in a
// single assembled batch.
type SourceSpacing struct {
	MaxPerBatch int
	MinSpacing  int
}

// TierSelection configures the filter/sort/pick pipeline for one tier.
type TierSelection struct {
	Sort      SortMode
	Filters   []string
	Diversity bool
	Freshness int // seconds; 0 means no freshness window
}

// TierRecipe is one tier's slice of a ScrollRecipe: its fixed slot
// allocation (ignored for wire, which fills the remainder), its selection
// pipeline, and per-source/per-subsource caps.
type TierRecipe struct {
	Allocation int
	Selection  TierSelection
	Sources    map[string]SourceRecipe
}

// SourceRecipe holds the spacing caps for one source within a tier, plus an
// optional breakdown by subsource.
type SourceRecipe struct {
	MaxPerBatch int
	MinSpacing  int
	Subsources  map[string]SourceSpacing
}

// SpacingRecipe holds global (cross-source) spacing rules.
type SpacingRecipe struct {
	MaxConsecutive int
}

// DecayRecipe configures the legacy decay-ratio algorithm, used only when a
// recipe has no explicit tier allocations.
type DecayRecipe struct {
	GroundingRatio float64
	DecayRate      float64
	MinRatio       float64
}

// ScrollRecipe is a user's per-session algorithm configuration: batch size,
// tier allocations, spacing rules, and filter aliases.
type ScrollRecipe struct {
	BatchSize int
	Tiers     map[Tier]TierRecipe
	Spacing   SpacingRecipe
	Aliases   map[string]string
	Decay     *DecayRecipe // non-nil only in legacy decay mode
}

// HasExplicitAllocations reports whether any non-wire tier carries an
// explicit slot allocation. When false and Decay is set, the legacy decay
// formula governs interleaving instead.
func (r *ScrollRecipe) HasExplicitAllocations() bool {
	for tier, tr := range r.Tiers {
		if tier == TierWire {
			continue
		}
		if tr.Allocation > 0 {
			return true
		}
	}
	return false
}

// GroundingSlots sums the allocations of the three non-wire tiers, clamped
// so it never reaches or exceeds BatchSize.
func (r *ScrollRecipe) GroundingSlots() int {
	total := 0
	for tier, tr := range r.Tiers {
		if tier == TierWire {
			continue
		}
		total += tr.Allocation
	}
	if total >= r.BatchSize {
		total = r.BatchSize - 1
	}
	if total < 0 {
		total = 0
	}
	return total
}

// WireSlots returns the number of batch positions left to wire once
// grounding tiers have claimed their allocation.
func (r *ScrollRecipe) WireSlots() int {
	return r.BatchSize - r.GroundingSlots()
}

// DefaultScrollRecipe returns the baked-in defaults the Query/Recipe Loader
// merges a user's recipe atop.
func DefaultScrollRecipe() ScrollRecipe {
	return ScrollRecipe{
		BatchSize: 20,
		Tiers: map[Tier]TierRecipe{
			TierWire: {
				Selection: TierSelection{Sort: SortTimestampDesc},
			},
			TierLibrary: {
				Selection: TierSelection{Sort: SortRandom},
			},
			TierScrapbook: {
				Selection: TierSelection{Sort: SortRandom},
			},
			TierCompass: {
				Selection: TierSelection{Sort: SortPriority},
			},
		},
		Spacing: SpacingRecipe{MaxConsecutive: 1},
		Aliases: map[string]string{},
	}
}
