// Package rss implements the wire-tier Adapter for RSS and Atom feeds using
// the gofeed library. Retry and circuit-breaking are the orchestrator's
// concern; this adapter does one fetch-and-parse per call.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catchup-feed/internal/domain/entity"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// defaultRequestsPerSecond and defaultBurst bound how often this adapter
// hits any single feed host, independent of the orchestrator's per-source
// circuit breaker, which only reacts after failures start happening.
const (
	defaultRequestsPerSecond = 2.0
	defaultBurst             = 5
)

// Adapter fetches and parses a single RSS/Atom feed per QueryConfig. The
// feed URL is read from config.Params["url"].
type Adapter struct {
	Client  *http.Client
	limiter *rate.Limiter
}

// New returns an Adapter using client, or http.DefaultClient if nil.
func New(client *http.Client) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{
		Client:  client,
		limiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
	}
}

// FetchItems parses the feed at config.Params["url"] into RawItems.
func (a *Adapter) FetchItems(ctx context.Context, config entity.QueryConfig) ([]entity.RawItem, error) {
	feedURL, _ := config.Params["url"].(string)
	if feedURL == "" {
		return nil, fmt.Errorf("rss adapter: query %q missing params.url", config.Name)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rss adapter: rate limit wait for %q: %w", config.Name, err)
	}

	fp := gofeed.NewParser()
	fp.UserAgent = "BoonscrollingBot"
	fp.Client = a.Client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %q: %w", feedURL, err)
	}

	limit := config.Limit
	if limit <= 0 || limit > len(feed.Items) {
		limit = len(feed.Items)
	}

	items := make([]entity.RawItem, 0, limit)
	for _, it := range feed.Items[:limit] {
		items = append(items, rawItemFrom(it, feed))
	}
	return items, nil
}

func rawItemFrom(it *gofeed.Item, feed *gofeed.Feed) entity.RawItem {
	ts := ""
	if it.PublishedParsed != nil {
		ts = it.PublishedParsed.UTC().Format(time.RFC3339)
	} else if it.UpdatedParsed != nil {
		ts = it.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	body := it.Content
	if body == "" {
		body = it.Description
	}

	imageURL := ""
	if it.Image != nil {
		imageURL = it.Image.URL
	}

	localID := it.GUID
	if localID == "" {
		localID = it.Link
	}

	return entity.RawItem{
		LocalID:   localID,
		Title:     it.Title,
		Body:      body,
		ImageURL:  imageURL,
		Link:      it.Link,
		Timestamp: ts,
		Meta: map[string]any{
			"feedTitle": feed.Title,
		},
	}
}
