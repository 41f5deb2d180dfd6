package rss

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/model"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/providers/common"
	"github.com/pylyp-driapak/ps-vita-tv-olx-bot/internal/retry"
)

const (
	sourceName            = "rss"
	userAgent             = "Mozilla/5.0"
	defaultRequestTimeout = 30 * time.Second
)

// Feed is a listing source for marketplaces that expose search results as an
// RSS/Atom feed. Feeds carry no structured price, so the price is reported as
// "N/A" and price bounds never exclude a feed item; keyword filtering against
// the entry title still applies.
type Feed struct {
	parser *gofeed.Parser

	name    string
	feedURL string
	limit   int
	timeout time.Duration
	filter  common.Filter
}

type Config struct {
	Name     string
	FeedURL  string
	Limit    int
	Keywords []string
	Timeout  time.Duration
}

func New(client *http.Client, cfg Config) (*Feed, error) {
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("rss watch %q: feed URL is required", cfg.Name)
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Feed{
		parser:  parser,
		name:    cfg.Name,
		feedURL: cfg.FeedURL,
		limit:   cfg.Limit,
		timeout: timeout,
		filter:  common.Filter{Keywords: cfg.Keywords},
	}, nil
}

func (f *Feed) Name() string {
	return f.name
}

func (f *Feed) Fetch(ctx context.Context) ([]model.Listing, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var feed *gofeed.Feed
	err := retry.Do(fetchCtx, retry.Policy{Attempts: 3, BaseDelay: 200 * time.Millisecond}, func() error {
		parsed, err := f.parser.ParseURLWithContext(f.feedURL, fetchCtx)
		if err != nil {
			return err
		}
		feed = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	now := time.Now().UTC()
	limit := f.limit
	if limit <= 0 {
		limit = len(feed.Items)
	}

	listings := make([]model.Listing, 0, limit)
	for _, entry := range feed.Items {
		if len(listings) >= limit {
			break
		}
		id := entry.GUID
		if id == "" {
			id = entry.Link
		}
		if id == "" || entry.Title == "" {
			continue
		}
		if !f.filter.Match(entry.Title, "") {
			continue
		}
		listings = append(listings, model.Listing{
			Source: sourceName,
			ID:     id,
			Title:  entry.Title,
			Price:  "N/A",
			URL:    entry.Link,
			SeenAt: now,
		})
	}
	return listings, nil
}
