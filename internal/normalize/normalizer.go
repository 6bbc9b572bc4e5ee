// Package normalize maps an adapter's raw output into the canonical
// FeedItem shape, rejecting items that cannot be made to satisfy the core's
// invariants.
package normalize

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/observability/metrics"
	"catchup-feed/internal/utils/text"
)

// maxBodyRunes caps the excerpt/description an adapter can hand back before
// it reaches a client; wire tiers in particular can carry full article
// bodies that dwarf a scroll batch's JSON payload.
const maxBodyRunes = 2000

// Item converts one RawItem produced by config's adapter into a FeedItem.
// It returns false when the item is dropped (missing id/title, or an
// unparseable timestamp on a wire-tier item); the drop is logged once and
// counted in metrics, never surfaced as an error.
func Item(raw entity.RawItem, config entity.QueryConfig) (entity.FeedItem, bool) {
	if raw.LocalID == "" {
		logDrop(config, "missing_id")
		return entity.FeedItem{}, false
	}
	if raw.Title == "" {
		logDrop(config, "missing_title")
		return entity.FeedItem{}, false
	}

	priority := config.Priority
	if raw.Priority != nil {
		priority = *raw.Priority
	}

	item := entity.FeedItem{
		ID:        config.Name + ":" + raw.LocalID,
		Tier:      config.Tier,
		Source:    config.Type,
		Title:     raw.Title,
		Body:      truncateBody(raw.Body),
		ImageURL:  raw.ImageURL,
		Link:      raw.Link,
		Priority:  priority,
		QueryName: config.Name,
		Meta:      raw.Meta,
	}
	item.Subsource = subsourceOf(raw.Meta)

	if raw.Timestamp != "" {
		if ts, ok := parseTimestamp(raw.Timestamp); ok {
			utc := ts.UTC()
			item.Timestamp = &utc
		} else if config.Tier == entity.TierWire {
			logDrop(config, "unparseable_timestamp")
			return entity.FeedItem{}, false
		}
	} else if config.Tier == entity.TierWire {
		logDrop(config, "missing_timestamp")
		return entity.FeedItem{}, false
	}

	if err := item.Validate(); err != nil {
		logDrop(config, "invalid")
		return entity.FeedItem{}, false
	}

	return item, true
}

// Items normalizes a batch of raw items in order, dropping any that fail,
// and optionally post-filtering to a subsource allowlist when the
// originating adapter could not honor the filter itself.
func Items(raws []entity.RawItem, config entity.QueryConfig, subsources []string) []entity.FeedItem {
	out := make([]entity.FeedItem, 0, len(raws))
	for _, raw := range raws {
		item, ok := Item(raw, config)
		if !ok {
			continue
		}
		if len(subsources) > 0 && !matchesSubsource(item, subsources) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// matchesSubsource checks item.Subsource, falling back to well-known meta
// keys (subreddit, sourceId, feedTitle, channelId) adapters commonly use,
// matching verbatim per the core's normalization policy.
func matchesSubsource(item entity.FeedItem, allow []string) bool {
	candidates := []string{item.Subsource}
	for _, key := range []string{"subreddit", "sourceId", "feedTitle", "channelId"} {
		if v, ok := item.Meta[key]; ok {
			if s, ok := v.(string); ok {
				candidates = append(candidates, s)
			}
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, a := range allow {
			if c == a {
				return true
			}
		}
	}
	return false
}

func subsourceOf(meta map[string]any) string {
	for _, key := range []string{"subreddit", "sourceId", "feedTitle", "channelId"} {
		if v, ok := meta[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// truncateBody clips an excerpt to maxBodyRunes, counting runes rather than
// bytes so multi-byte text isn't cut mid-character.
func truncateBody(body string) string {
	if text.CountRunes(body) <= maxBodyRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxBodyRunes])
}

func logDrop(config entity.QueryConfig, reason string) {
	metrics.RecordItemDropped(config.Type, reason)
	slog.Warn("dropped raw item during normalization",
		slog.String("source", config.Type),
		slog.String("query", config.Name),
		slog.String("reason", reason))
}

// DropSummary renders a short human-readable summary, used in warnings
// surfaced back to the caller when an entire source produced zero usable
// items.
func DropSummary(source string, dropped int) string {
	return fmt.Sprintf("%s: dropped %d item(s) during normalization", source, dropped)
}
