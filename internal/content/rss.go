package content

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	// defaultFeedTimeout bounds one feed fetch; a slow feed is skipped, not
	// waited for.
	defaultFeedTimeout = 3 * time.Second

	// maxConcurrentFeeds caps the fan-out across feeds.
	maxConcurrentFeeds = 5

	feedUserAgent = "plainnews/1.0 (+https://github.com/avoronova/plainnews)"
)

// FeedConfig holds tunables for the RSS fetcher. Zero values pick defaults.
type FeedConfig struct {
	// Timeout bounds a single feed fetch.
	Timeout time.Duration
	// Now is the clock used to decide what "today" means (UTC).
	Now func() time.Time
}

// FeedSet fetches today's articles from a fixed list of RSS feeds.
type FeedSet struct {
	urls    []string
	client  *http.Client
	timeout time.Duration
	now     func() time.Time
}

// NewFeedSet builds a FeedSet over the given feed URLs.
func NewFeedSet(urls []string, cfg FeedConfig) *FeedSet {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFeedTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &FeedSet{
		urls:    urls,
		client:  &http.Client{Timeout: cfg.Timeout},
		timeout: cfg.Timeout,
		now:     cfg.Now,
	}
}

// FetchToday polls every configured feed in parallel and returns the entries
// published today (UTC). A feed that errors or times out is logged and
// skipped; it never aborts the batch, so the worst case is a smaller pool.
func (f *FeedSet) FetchToday(ctx context.Context) ([]Article, error) {
	today := f.now().UTC().Truncate(24 * time.Hour)

	var (
		g, gctx = errgroup.WithContext(ctx)
		results = make([][]Article, len(f.urls))
	)
	g.SetLimit(maxConcurrentFeeds)

	for i, url := range f.urls {
		g.Go(func() error {
			articles, err := f.fetchFeed(gctx, url, today)
			if err != nil {
				slog.Warn("rss: feed skipped", "url", url, "err", err)
				return nil
			}
			results[i] = articles
			return nil
		})
	}
	// Workers never return errors; Wait only reflects context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Article
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// fetchFeed downloads and parses one feed, keeping entries published today.
// Entries with a missing or unparseable publish date are excluded rather
// than defaulted: a dateless entry cannot be proven fresh.
func (f *FeedSet) fetchFeed(ctx context.Context, url string, today time.Time) ([]Article, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", feedUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var out []Article
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil || !published.UTC().Truncate(24*time.Hour).Equal(today) {
			continue
		}

		body := item.Content
		if body == "" {
			body = item.Description
		}
		out = append(out, NewArticle(StripTags(item.Title), StripTags(body), item.Link))
	}
	return out, nil
}
