package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"RegimeNews/internal/domain/errs"
	"RegimeNews/internal/domain/models"
	"RegimeNews/internal/domain/repository"
	svcmetrics "RegimeNews/internal/service/metrics"
	xhttp "RegimeNews/pkg/http"
)

const (
	DefaultFeedURL      = "https://news.google.com/rss/search"
	DefaultLookbackDays = 7
	DefaultMaxItems     = 50
)

// RSSConfig configures the Google News search feed.
type RSSConfig struct {
	FeedURL      string
	LookbackDays int
	MaxItems     int
}

// RSSFeed reads ticker headlines from a Google News search feed.
type RSSFeed struct {
	client *xhttp.Client
	cfg    RSSConfig
	now    func() time.Time
}

var _ repository.NewsSource = (*RSSFeed)(nil)

// NewRSSFeed builds a feed reader. A nil now uses time.Now.
func NewRSSFeed(client *xhttp.Client, cfg RSSConfig, now func() time.Time) *RSSFeed {
	if cfg.FeedURL == "" {
		cfg.FeedURL = DefaultFeedURL
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if now == nil {
		now = time.Now
	}
	return &RSSFeed{client: client, cfg: cfg, now: now}
}

// Headlines returns at most MaxItems entries from the head of the feed,
// skipping items published before the lookback cutoff. Items without a
// parsable date are kept.
func (f *RSSFeed) Headlines(ctx context.Context, ticker string) (out []models.Article, err error) {
	start := time.Now()
	defer func() { svcmetrics.ObserveFetch("google_news", "rss", start, len(out), err) }()

	body, err := f.client.Fetch(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    f.cfg.FeedURL,
		QueryParams: map[string][]string{
			"q":    {strings.ToUpper(strings.TrimSpace(ticker)) + " stock"},
			"hl":   {"en-US"},
			"gl":   {"US"},
			"ceid": {"US:en"},
		},
	})
	if err != nil {
		return nil, errs.UpstreamFetch("news.rss", err)
	}

	parsed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, errs.UpstreamFetch("news.rss", fmt.Errorf("decode feed: %w", err))
	}

	source := strings.TrimSpace(parsed.Title)
	if source == "" {
		source = "rss"
	}
	cutoff := f.now().UTC().AddDate(0, 0, -f.cfg.LookbackDays)

	items := parsed.Items
	if len(items) > f.cfg.MaxItems {
		items = items[:f.cfg.MaxItems]
	}
	out = make([]models.Article, 0, len(items))
	for _, it := range items {
		published := publishedAt(it)
		if published != nil && published.Before(cutoff) {
			continue
		}
		out = append(out, models.Article{
			Title:     strings.TrimSpace(it.Title),
			Link:      strings.TrimSpace(it.Link),
			Published: published,
			Source:    source,
		})
	}
	return out, nil
}

// publishedAt prefers the publish date and falls back to the update date
// Atom feeds carry.
func publishedAt(it *gofeed.Item) *time.Time {
	t := it.PublishedParsed
	if t == nil {
		t = it.UpdatedParsed
	}
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
