// Package config loads the user-editable query and recipe definitions that
// drive the Source Orchestrator and Tier Assembly Engine: one YAML file per
// query under a directory, and a single per-user recipe file merged atop the
// baked-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"catchup-feed/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// queryFile is the on-disk shape of one query definition. Params are left as
// a raw map; adapters interpret their own shape.
type queryFile struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Tier     string         `yaml:"tier"`
	Priority int            `yaml:"priority"`
	Limit    int            `yaml:"limit"`
	Params   map[string]any `yaml:"params"`
}

// QueryLoader reads query definitions from a directory of YAML files, one
// file per query, and caches them until the directory's newest mtime
// changes.
//
// Recipe/query files are read-only after load; a caller only pays the
// directory-scan cost again when something on disk actually changed.
type QueryLoader struct {
	Dir string

	mu            sync.Mutex
	loadedAt      time.Time
	newestMod     time.Time
	cached        []entity.QueryConfig
	cachedWarning []entity.Warning
}

// NewQueryLoader returns a loader rooted at dir.
func NewQueryLoader(dir string) *QueryLoader {
	return &QueryLoader{Dir: dir}
}

// Load returns the directory's query configs, reusing the cached result
// unless a file in the directory was modified since the last load. A
// malformed or duplicate-named file is skipped and reported as a warning
// rather than failing the whole load; only a directory-read failure is a
// hard error.
func (l *QueryLoader) Load() ([]entity.QueryConfig, []entity.Warning, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read query directory %q: %w", l.Dir, err)
	}

	var newest time.Time
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, nil, fmt.Errorf("stat %q: %w", e.Name(), err)
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		files = append(files, e.Name())
	}

	if l.cached != nil && !newest.After(l.newestMod) {
		return l.cached, l.cachedWarning, nil
	}

	sort.Strings(files)
	configs := make([]entity.QueryConfig, 0, len(files))
	var warnings []entity.Warning
	seen := map[string]bool{}
	for _, name := range files {
		cfg, err := loadQueryFile(filepath.Join(l.Dir, name))
		if err != nil {
			warnings = append(warnings, entity.Warning{Source: name, Kind: "ConfigInvalid", Message: err.Error()})
			continue
		}
		if seen[cfg.Name] {
			warnings = append(warnings, entity.Warning{Source: name, Kind: "ConfigInvalid", Message: fmt.Sprintf("duplicate query name %q", cfg.Name)})
			continue
		}
		seen[cfg.Name] = true
		configs = append(configs, cfg)
	}

	l.cached = configs
	l.cachedWarning = warnings
	l.newestMod = newest
	l.loadedAt = time.Now()
	return configs, warnings, nil
}

func loadQueryFile(path string) (entity.QueryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.QueryConfig{}, err
	}

	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return entity.QueryConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := entity.QueryConfig{
		Name:     qf.Name,
		Type:     qf.Type,
		Tier:     entity.Tier(qf.Tier),
		Priority: qf.Priority,
		Limit:    qf.Limit,
		Params:   qf.Params,
	}
	if err := cfg.Validate(); err != nil {
		return entity.QueryConfig{}, err
	}
	return cfg, nil
}

func isYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
