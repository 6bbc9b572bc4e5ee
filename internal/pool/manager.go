// Package pool maintains session-scoped FeedItem pools: refilling from the
// Source Orchestrator, filtering dismissed/read items, and serving
// paginated batches either straight from a narrowing filter or through the
// Tier Assembly Engine.
package pool

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"catchup-feed/internal/assembly"
	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/metrics"
)

// DefaultSessionTTL is how long a session may sit idle before its pool is
// dropped and the next request re-seeds from scratch.
const DefaultSessionTTL = 2 * time.Hour

// recentlyShownFactor sizes the scrapbook recently-shown buffer relative to
// batch size, per the Tier Assembly Engine's dedup window.
const recentlyShownFactor = 3

// Fetcher is the subset of the Source Orchestrator the Pool Manager needs.
type Fetcher interface {
	Fetch(ctx context.Context, configs []entity.QueryConfig, filter entity.Filter) ([]entity.FeedItem, []entity.Warning)
}

// DismissedStore is the subset of the Dismissed-Items Store the Pool
// Manager needs, scoped to one user.
type DismissedStore interface {
	Load(ctx context.Context) entity.DismissedRecord
	Add(ctx context.Context, ids []string) error
}

// MarkReader proxies dismissals to a source with its own upstream read
// state (e.g. FreshRSS) instead of writing them to the Dismissed-Items
// Store.
type MarkReader interface {
	MarkRead(ctx context.Context, localIDs []string) error
}

type sessionEntry struct {
	mu            sync.Mutex
	state         *entity.PoolState
	recentlyShown []string
}

// Manager owns every (user, sessionID) pool in the process.
type Manager struct {
	Fetcher          Fetcher
	MarkReaders      map[string]MarkReader
	SessionTTL       time.Duration
	DefaultBatchSize int

	DismissedStoreFor func(userID string) DismissedStore
	ConfigsFor        func(userID string) []entity.QueryConfig
	RecipeFor         func(userID string) entity.ScrollRecipe

	mu       sync.RWMutex
	sessions map[entity.SessionKey]*sessionEntry
}

// New builds a Manager; the three For-callbacks let a single Manager serve
// multiple users without loading every user's config/recipe/dismissed file
// up front.
func New(fetcher Fetcher, dismissedStoreFor func(string) DismissedStore, configsFor func(string) []entity.QueryConfig, recipeFor func(string) entity.ScrollRecipe) *Manager {
	return &Manager{
		Fetcher:           fetcher,
		MarkReaders:       map[string]MarkReader{},
		SessionTTL:        DefaultSessionTTL,
		DefaultBatchSize:  entity.DefaultScrollRecipe().BatchSize,
		DismissedStoreFor: dismissedStoreFor,
		ConfigsFor:        configsFor,
		RecipeFor:         recipeFor,
		sessions:          map[entity.SessionKey]*sessionEntry{},
	}
}

// GetBatch implements the Pool Manager's core contract: refill on empty
// pool or absent cursor, filter dismissed items, then either bypass
// assembly for a narrowing filter or hand the pool to the Tier Assembly
// Engine.
func (m *Manager) GetBatch(ctx context.Context, key entity.SessionKey, filter entity.Filter, cursor *int64) (entity.Batch, []entity.Warning) {
	now := time.Now()
	entry := m.entryFor(key, now)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.state.LastTouched = now

	var warnings []entity.Warning
	if cursor == nil || len(entry.state.Items) == 0 {
		configs := m.ConfigsFor(key.UserID)
		items, warns := m.Fetcher.Fetch(ctx, configs, filter)
		warnings = append(warnings, warns...)
		entry.state.Items = items
		entry.state.Consumed = map[string]struct{}{}
		entry.state.Cursor = 0
	}

	if ctx.Err() != nil {
		return entity.Batch{Warnings: append(warnings, entity.Warning{Kind: "cancelled", Message: ctx.Err().Error()})}, warnings
	}

	dismissedSet := m.DismissedStoreFor(key.UserID).Load(ctx)
	entry.state.Items = removeDismissed(entry.state.Items, dismissedSet)

	recipe := m.RecipeFor(key.UserID)
	batchSize := recipe.BatchSize
	if batchSize <= 0 {
		batchSize = m.DefaultBatchSize
	}

	if filter.Active() {
		batch := m.bypassAssembly(entry, filter, cursor, batchSize)
		return batch, warnings
	}

	batch := m.runAssembly(entry, recipe, key, now, batchSize)
	return batch, warnings
}

func (m *Manager) bypassAssembly(entry *sessionEntry, filter entity.Filter, cursor *int64, batchSize int) entity.Batch {
	matching := filterMatching(entry.state.Items, filter)
	sortForFilter(matching, filter)

	offset := 0
	if cursor != nil {
		offset = int(*cursor)
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matching) {
		return entity.Batch{Items: nil, NextCursor: int64(offset), HasMore: false}
	}

	end := offset + batchSize
	if end > len(matching) {
		end = len(matching)
	}
	page := append([]entity.FeedItem(nil), matching[offset:end]...)
	return entity.Batch{
		Items:      page,
		NextCursor: int64(end),
		HasMore:    end < len(matching),
	}
}

func (m *Manager) runAssembly(entry *sessionEntry, recipe entity.ScrollRecipe, key entity.SessionKey, now time.Time, batchSize int) entity.Batch {
	unconsumed := make([]entity.FeedItem, 0, len(entry.state.Items))
	for _, item := range entry.state.Items {
		if _, done := entry.state.Consumed[item.ID]; !done {
			unconsumed = append(unconsumed, item)
		}
	}

	recentlyShown := make(map[string]bool, len(entry.recentlyShown))
	for _, id := range entry.recentlyShown {
		recentlyShown[id] = true
	}

	batchItems := assembly.Assemble(unconsumed, recipe, assembly.Options{
		SessionSeed:    seedFromKey(key),
		SessionMinutes: now.Sub(entry.state.CreatedAt).Minutes(),
		RecentlyShown:  recentlyShown,
		Now:            now,
	})

	for _, item := range batchItems {
		entry.state.Consumed[item.ID] = struct{}{}
		if item.Tier == entity.TierScrapbook {
			entry.recentlyShown = append(entry.recentlyShown, item.ID)
		}
	}
	cap := recentlyShownFactor * batchSize
	if len(entry.recentlyShown) > cap {
		entry.recentlyShown = entry.recentlyShown[len(entry.recentlyShown)-cap:]
	}

	entry.state.Cursor += int64(len(batchItems))
	return entity.Batch{
		Items:      batchItems,
		NextCursor: entry.state.Cursor,
		HasMore:    entry.state.Remaining() > 0,
	}
}

// Dismiss partitions itemIDs between sources with their own upstream
// read-marking (proxied via MarkReaders) and everything else (written to
// the per-user Dismissed-Items Store), returning the count processed.
func (m *Manager) Dismiss(ctx context.Context, userID string, itemIDs []string) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	configsByName := m.configIndex(userID)
	byMarkReader := map[string][]string{}
	var toStore []string

	for _, id := range itemIDs {
		name, localID := splitItemID(id)
		if cfg, ok := configsByName[name]; ok {
			if _, ok := m.MarkReaders[cfg.Type]; ok {
				byMarkReader[cfg.Type] = append(byMarkReader[cfg.Type], localID)
				continue
			}
		}
		toStore = append(toStore, id)
	}

	for sourceType, localIDs := range byMarkReader {
		reader := m.MarkReaders[sourceType]
		if err := reader.MarkRead(ctx, localIDs); err != nil {
			slog.Warn("pool manager: mark-read proxy failed, falling back to dismissed store",
				slog.String("source", sourceType), slog.Any("error", err))
			toStore = append(toStore, localIDs...)
		} else {
			metrics.RecordDismissal(sourceType)
		}
	}

	if len(toStore) > 0 {
		if err := m.DismissedStoreFor(userID).Add(ctx, toStore); err != nil {
			return 0, err
		}
		metrics.RecordDismissal("dismissed_store")
	}

	return len(itemIDs), nil
}

func (m *Manager) configIndex(userID string) map[string]entity.QueryConfig {
	configs := m.ConfigsFor(userID)
	idx := make(map[string]entity.QueryConfig, len(configs))
	for _, cfg := range configs {
		idx[cfg.Name] = cfg
	}
	return idx
}

func (m *Manager) entryFor(key entity.SessionKey, now time.Time) *sessionEntry {
	ttl := m.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	m.mu.RLock()
	entry, ok := m.sessions[key]
	m.mu.RUnlock()
	if ok && !m.isIdle(entry, now, ttl) {
		return entry
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.sessions[key]; ok && !m.isIdle(entry, now, ttl) {
		return entry
	}
	entry = &sessionEntry{state: entity.NewPoolState(now)}
	m.sessions[key] = entry
	metrics.UpdateActiveSessions(len(m.sessions))
	return entry
}

func (m *Manager) isIdle(entry *sessionEntry, now time.Time, ttl time.Duration) bool {
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state.Idle(now, ttl)
}

// StartReaper runs a periodic sweep dropping idle sessions, following the
// same ticker-driven cleanup shape used elsewhere in this codebase. It
// blocks until ctx is cancelled.
func (m *Manager) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("pool session reaper started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			slog.Info("pool session reaper stopped")
			return
		case <-ticker.C:
			m.reapIdle(time.Now())
		}
	}
}

func (m *Manager) reapIdle(now time.Time) {
	ttl := m.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, entry := range m.sessions {
		if m.isIdle(entry, now, ttl) {
			delete(m.sessions, key)
			metrics.RecordSessionExpired()
		}
	}
	metrics.UpdateActiveSessions(len(m.sessions))
}

func removeDismissed(items []entity.FeedItem, dismissed entity.DismissedRecord) []entity.FeedItem {
	if len(dismissed) == 0 {
		return items
	}
	out := make([]entity.FeedItem, 0, len(items))
	for _, item := range items {
		if !dismissed.Contains(item.ID) {
			out = append(out, item)
		}
	}
	return out
}

func filterMatching(items []entity.FeedItem, filter entity.Filter) []entity.FeedItem {
	out := make([]entity.FeedItem, 0, len(items))
	for _, item := range items {
		if matchesFilter(item, filter) {
			out = append(out, item)
		}
	}
	return out
}

func matchesFilter(item entity.FeedItem, filter entity.Filter) bool {
	switch filter.Kind {
	case entity.FilterKindTier:
		return item.Tier == filter.Tier
	case entity.FilterKindSource:
		if item.Source != filter.SourceType {
			return false
		}
		if len(filter.Subsources) == 0 {
			return true
		}
		for _, sub := range filter.Subsources {
			if item.Subsource == sub {
				return true
			}
		}
		return false
	case entity.FilterKindQuery:
		return item.QueryName == filter.QueryName
	default:
		return true
	}
}

// sortForFilter sorts in place: timestamp descending for a wire-tier filter,
// priority descending for a compass-tier filter, adapter arrival order
// (stable, no-op) otherwise.
func sortForFilter(items []entity.FeedItem, filter entity.Filter) {
	if filter.Kind != entity.FilterKindTier {
		return
	}
	switch filter.Tier {
	case entity.TierWire:
		sort.SliceStable(items, func(i, j int) bool {
			ti, tj := items[i].Timestamp, items[j].Timestamp
			if ti == nil || tj == nil {
				return false
			}
			return ti.After(*tj)
		})
	case entity.TierCompass:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Priority > items[j].Priority
		})
	}
}

func splitItemID(id string) (name, localID string) {
	i := strings.IndexByte(id, ':')
	if i < 0 {
		return id, ""
	}
	return id[:i], id[i+1:]
}

func seedFromKey(key entity.SessionKey) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key.UserID + "|" + key.SessionID))
	return int64(h.Sum64())
}
