package content

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher produces the article pool for a key on a cache miss.
type Fetcher interface {
	FetchPool(ctx context.Context, key Key) ([]Article, error)
}

// CacheConfig holds tunables for the pool cache. Zero values pick defaults.
type CacheConfig struct {
	// TTL is how long a fetched pool is served before a re-fetch.
	TTL time.Duration
	// MaxEntries bounds the number of cached pools; when exceeded, the pool
	// with the oldest fetch time is evicted.
	MaxEntries int
	// Now is the clock, injectable for deterministic TTL tests.
	Now func() time.Time
	// Pick selects a random index in [0, n); injectable for engine tests.
	Pick func(n int) int
}

const (
	// DefaultTTL matches the 300-second pool lifetime of the skill.
	DefaultTTL = 5 * time.Minute

	defaultMaxEntries = 256
)

// pool is one cached article set. Entries are immutable after insertion and
// replaced wholesale on refresh.
type pool struct {
	fetchedAt time.Time
	articles  []Article
}

// Cache is the TTL-keyed store of article pools. Concurrent misses on the
// same key trigger exactly one backend fetch (single-flight).
type Cache struct {
	fetcher    Fetcher
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	pick       func(n int) int

	mu    sync.Mutex
	pools map[string]*pool
	group singleflight.Group
}

// NewCache builds a Cache over the given fetcher.
func NewCache(fetcher Fetcher, cfg CacheConfig) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = defaultMaxEntries
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Pick == nil {
		cfg.Pick = rand.IntN
	}
	return &Cache{
		fetcher:    fetcher,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		now:        cfg.Now,
		pick:       cfg.Pick,
		pools:      make(map[string]*pool),
	}
}

// Pool returns the article pool for key, fetching and caching it when the
// cached copy is missing or stale. Empty pools are cached too: "no articles
// that day" is a valid answer that should not hammer the backend.
func (c *Cache) Pool(ctx context.Context, key Key) ([]Article, error) {
	id := key.String()

	if articles, ok := c.fresh(id); ok {
		return articles, nil
	}

	v, err, shared := c.group.Do(id, func() (any, error) {
		// A concurrent flight may have refilled the entry while this
		// goroutine waited for the flight lock.
		if articles, ok := c.fresh(id); ok {
			return articles, nil
		}

		articles, err := c.fetcher.FetchPool(ctx, key)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pools[id] = &pool{fetchedAt: c.now(), articles: articles}
		c.evictLocked(id)
		c.mu.Unlock()

		slog.Debug("content: pool refreshed", "key", id, "articles", len(articles))
		return articles, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("content: pool fetch shared between concurrent turns", "key", id)
	}
	return v.([]Article), nil
}

// Draw picks a uniformly random article from the pool for key. The second
// return value is false when the pool is empty.
func (c *Cache) Draw(ctx context.Context, key Key) (Article, bool, error) {
	articles, err := c.Pool(ctx, key)
	if err != nil {
		return Article{}, false, err
	}
	if len(articles) == 0 {
		return Article{}, false, nil
	}
	return articles[c.pick(len(articles))], true, nil
}

// fresh returns the cached pool for id when it exists and is within TTL.
func (c *Cache) fresh(id string) ([]Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pools[id]
	if !ok || c.now().Sub(p.fetchedAt) >= c.ttl {
		return nil, false
	}
	return p.articles, true
}

// evictLocked drops oldest-fetched pools until the entry count is within
// bounds, never evicting keep. Caller holds c.mu.
func (c *Cache) evictLocked(keep string) {
	for len(c.pools) > c.maxEntries {
		oldestID := ""
		var oldest time.Time
		for id, p := range c.pools {
			if id == keep {
				continue
			}
			if oldestID == "" || p.fetchedAt.Before(oldest) {
				oldestID = id
				oldest = p.fetchedAt
			}
		}
		if oldestID == "" {
			return
		}
		delete(c.pools, oldestID)
		slog.Debug("content: evicted pool", "key", oldestID)
	}
}
