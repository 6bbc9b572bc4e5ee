package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// recipeFile is the on-disk shape of a user's scroll recipe. Every field is
// optional; zero values are left alone by the merge so the baked-in default
// shows through.
type recipeFile struct {
	BatchSize int                 `yaml:"batch_size"`
	Tiers     map[string]tierFile `yaml:"tiers"`
	Spacing   *spacingFile        `yaml:"spacing"`
	Aliases   map[string]string   `yaml:"aliases"`
	Decay     *decayFile          `yaml:"decay"`
	Sources   map[string][]string `yaml:"sources"` // tier -> query names enabled in that tier
}

type tierFile struct {
	Allocation int                   `yaml:"allocation"`
	Sort       string                `yaml:"sort"`
	Filters    []string              `yaml:"filters"`
	Diversity  bool                  `yaml:"diversity"`
	Freshness  int                   `yaml:"freshness_seconds"`
	Sources    map[string]sourceFile `yaml:"sources"`
}

type sourceFile struct {
	MaxPerBatch int                      `yaml:"max_per_batch"`
	MinSpacing  int                      `yaml:"min_spacing"`
	Subsources  map[string]spacingLimits `yaml:"subsources"`
}

type spacingLimits struct {
	MaxPerBatch int `yaml:"max_per_batch"`
	MinSpacing  int `yaml:"min_spacing"`
}

type spacingFile struct {
	MaxConsecutive int `yaml:"max_consecutive"`
}

type decayFile struct {
	GroundingRatio float64 `yaml:"grounding_ratio"`
	DecayRate      float64 `yaml:"decay_rate"`
	MinRatio       float64 `yaml:"min_ratio"`
}

// RecipeLoader reads a single user's scroll recipe file, merges it atop
// entity.DefaultScrollRecipe(), and caches the result until the file's mtime
// changes.
type RecipeLoader struct {
	Path string

	mu       sync.Mutex
	modTime  time.Time
	cached   entity.ScrollRecipe
	enabled  map[string]map[string]bool
	hasCache bool
}

// NewRecipeLoader returns a loader for the recipe file at path.
func NewRecipeLoader(path string) *RecipeLoader {
	return &RecipeLoader{Path: path}
}

// Load returns the merged recipe. A missing file is not an error: it yields
// the default recipe unchanged.
func (l *RecipeLoader) Load() (entity.ScrollRecipe, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := os.Stat(l.Path)
	if os.IsNotExist(err) {
		l.hasCache = true
		l.cached = entity.DefaultScrollRecipe()
		l.enabled = nil
		return l.cached, nil
	}
	if err != nil {
		return entity.ScrollRecipe{}, fmt.Errorf("stat recipe file %q: %w", l.Path, err)
	}

	if l.hasCache && !info.ModTime().After(l.modTime) {
		return l.cached, nil
	}

	data, err := os.ReadFile(l.Path)
	if err != nil {
		return entity.ScrollRecipe{}, fmt.Errorf("read recipe file %q: %w", l.Path, err)
	}

	var rf recipeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return entity.ScrollRecipe{}, fmt.Errorf("parse recipe yaml: %w", err)
	}

	recipe := mergeRecipe(entity.DefaultScrollRecipe(), rf)
	l.cached = recipe
	l.enabled = enabledSources(rf)
	l.modTime = info.ModTime()
	l.hasCache = true
	return recipe, nil
}

// FilterEnabledQueries drops any query config whose tier/name pair was not
// listed under the recipe's `sources:` block. Load must run first; a recipe
// that never set `sources:` disables nothing.
func (l *RecipeLoader) FilterEnabledQueries(configs []entity.QueryConfig) []entity.QueryConfig {
	l.mu.Lock()
	enabled := l.enabled
	l.mu.Unlock()

	if enabled == nil {
		return configs
	}

	out := make([]entity.QueryConfig, 0, len(configs))
	for _, cfg := range configs {
		if set, ok := enabled[string(cfg.Tier)]; ok && !set[cfg.Name] {
			continue
		}
		out = append(out, cfg)
	}
	return out
}

// mergeRecipe overlays a parsed recipe file atop the defaults. Zero-value
// fields in the file never overwrite a non-zero default.
func mergeRecipe(base entity.ScrollRecipe, rf recipeFile) entity.ScrollRecipe {
	if rf.BatchSize > 0 {
		base.BatchSize = rf.BatchSize
	}

	for tierName, tf := range rf.Tiers {
		tier := entity.Tier(tierName)
		if !entity.ValidTier(tier) {
			continue
		}
		tr := base.Tiers[tier]
		if tf.Allocation > 0 {
			tr.Allocation = tf.Allocation
		}
		if tf.Sort != "" {
			tr.Selection.Sort = entity.SortMode(tf.Sort)
		}
		if len(tf.Filters) > 0 {
			tr.Selection.Filters = tf.Filters
		}
		tr.Selection.Diversity = tf.Diversity
		if tf.Freshness > 0 {
			tr.Selection.Freshness = tf.Freshness
		}
		if len(tf.Sources) > 0 {
			tr.Sources = map[string]entity.SourceRecipe{}
			for sourceName, sf := range tf.Sources {
				sr := entity.SourceRecipe{MaxPerBatch: sf.MaxPerBatch, MinSpacing: sf.MinSpacing}
				if len(sf.Subsources) > 0 {
					sr.Subsources = map[string]entity.SourceSpacing{}
					for sub, lim := range sf.Subsources {
						sr.Subsources[sub] = entity.SourceSpacing{MaxPerBatch: lim.MaxPerBatch, MinSpacing: lim.MinSpacing}
					}
				}
				tr.Sources[sourceName] = sr
			}
		}
		base.Tiers[tier] = tr
	}

	if rf.Spacing != nil && rf.Spacing.MaxConsecutive > 0 {
		base.Spacing.MaxConsecutive = rf.Spacing.MaxConsecutive
	}

	for alias, target := range rf.Aliases {
		base.Aliases[alias] = target
	}

	if rf.Decay != nil {
		base.Decay = &entity.DecayRecipe{
			GroundingRatio: rf.Decay.GroundingRatio,
			DecayRate:      rf.Decay.DecayRate,
			MinRatio:       rf.Decay.MinRatio,
		}
	}

	return base
}

// enabledSources reports, per tier, which query names a recipe file
// explicitly listed under `sources:`. Queries omitted from every tier entry
// are disabled for that user. A recipe file that never set `sources:` at all
// returns nil: no restriction, every configured query stays enabled.
func enabledSources(rf recipeFile) map[string]map[string]bool {
	if len(rf.Sources) == 0 {
		return nil
	}
	enabled := make(map[string]map[string]bool, len(rf.Sources))
	for tier, names := range rf.Sources {
		set := make(map[string]bool, len(names))
		for _, n := range names {
			set[n] = true
		}
		enabled[tier] = set
	}
	return enabled
}
