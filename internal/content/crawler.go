package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"golang.org/x/time/rate"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/avoronova/plainnews/common/redact"
	"github.com/avoronova/plainnews/common/retry"
)

const (
	defaultPageSize     = 100
	defaultMaxPages     = 200
	defaultLookbackDays = 3
	defaultKeywordCap   = 40

	// pageInterval paces pagination requests so a deep crawl does not hammer
	// the homeserver even before it answers with a rate limit.
	pageInterval = 250 * time.Millisecond

	// maxPageRetries bounds how often a single page is retried on rate-limit
	// responses before the crawl surfaces a fetch failure.
	maxPageRetries = 5
)

// HistoryAPI is the slice of the Matrix client the crawler needs. Satisfied
// by *mautrix.Client; tests substitute a fake.
type HistoryAPI interface {
	Messages(ctx context.Context, roomID id.RoomID, from, to string, dir mautrix.Direction, filter *mautrix.FilterPart, limit int) (*mautrix.RespMessages, error)
	JoinRoomByID(ctx context.Context, roomID id.RoomID) (*mautrix.RespJoinRoom, error)
}

// CrawlerConfig configures the press-channel crawler.
type CrawlerConfig struct {
	// Homeserver, UserID and AccessToken are the Matrix credentials.
	Homeserver  string
	UserID      string
	AccessToken string
	// Room is the channel room ID to crawl.
	Room string
	// DenyTerms are words that mark a post as self-promotion: emphasis spans
	// matching them are stripped and posts titled with them are dropped.
	DenyTerms []string
	// LookbackDays bounds the keyword scan. Defaults to 3.
	LookbackDays int
	// KeywordCap bounds the number of keyword hits. Defaults to 40.
	KeywordCap int
	// PageSize is the pagination chunk size. Defaults to 100.
	PageSize int
	// MaxPages is a safety bound on pagination depth per crawl.
	MaxPages int
	// Location is the time zone whose day boundaries the by-date crawl uses.
	// Defaults to Europe/Moscow, the channel's publishing zone.
	Location *time.Location
	// Now is the clock, injectable for tests.
	Now func() time.Time
}

// Crawler collects articles from a press channel's message history by
// paginating backwards through the room timeline.
type Crawler struct {
	api        HistoryAPI
	room       id.RoomID
	deny       *regexp.Regexp
	secrets    []string
	limiter    *rate.Limiter
	pageSize   int
	maxPages   int
	lookback   time.Duration
	keywordCap int
	loc        *time.Location
	now        func() time.Time
}

// NewCrawler builds a Crawler with a real Matrix client.
func NewCrawler(cfg CrawlerConfig) (*Crawler, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	// Rate limits are handled by the crawl's own bounded retry so the wait
	// durations show up in logs and tests; disable the client's silent sleep.
	client.IgnoreRateLimit = true
	return NewCrawlerWithAPI(client, cfg)
}

// NewCrawlerWithAPI builds a Crawler over an existing history API.
func NewCrawlerWithAPI(api HistoryAPI, cfg CrawlerConfig) (*Crawler, error) {
	if cfg.Room == "" {
		return nil, errors.New("crawler: room must not be empty")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = defaultLookbackDays
	}
	if cfg.KeywordCap <= 0 {
		cfg.KeywordCap = defaultKeywordCap
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation("Europe/Moscow")
		if err != nil {
			// Containers without tzdata still get the right offset.
			loc = time.FixedZone("MSK", 3*60*60)
		}
		cfg.Location = loc
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var deny *regexp.Regexp
	if len(cfg.DenyTerms) > 0 {
		re, err := WholeWord(cfg.DenyTerms...)
		if err != nil {
			return nil, fmt.Errorf("crawler: denylist: %w", err)
		}
		deny = re
	}

	var secrets []string
	if cfg.AccessToken != "" {
		secrets = append(secrets, cfg.AccessToken)
	}

	return &Crawler{
		api:        api,
		room:       id.RoomID(cfg.Room),
		deny:       deny,
		secrets:    secrets,
		limiter:    rate.NewLimiter(rate.Every(pageInterval), 1),
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxPages,
		lookback:   time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		keywordCap: cfg.KeywordCap,
		loc:        cfg.Location,
		now:        cfg.Now,
	}, nil
}

// Join makes sure the crawler's account is a member of the channel room.
// M_FORBIDDEN means "already a member" on most homeservers and is not fatal.
func (c *Crawler) Join(ctx context.Context) error {
	_, err := c.api.JoinRoomByID(ctx, c.room)
	if err != nil {
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("crawler: join refused, assuming existing membership", "room", c.room)
			return nil
		}
		return c.scrub(fmt.Errorf("join room %s: %w", c.room, err))
	}
	return nil
}

// ByDate collects the channel posts published on the given calendar day in
// the crawler's time zone, paginating backwards until the crawl crosses the
// start of that day.
func (c *Crawler) ByDate(ctx context.Context, day time.Time) ([]Article, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, c.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var out []Article
	err := c.walk(ctx, func(ts time.Time, art Article, ok bool) (bool, error) {
		if ts.Before(dayStart) {
			return false, nil
		}
		if ok && ts.Before(dayEnd) {
			out = append(out, art)
		}
		return true, nil
	})
	if err != nil {
		return nil, c.scrub(err)
	}
	return out, nil
}

// ByKeyword collects up to the configured cap of posts from the lookback
// window that mention word as a whole word, stopping early at either bound.
func (c *Crawler) ByKeyword(ctx context.Context, word string) ([]Article, error) {
	match, err := WholeWord(word)
	if err != nil {
		return nil, fmt.Errorf("keyword pattern: %w", err)
	}
	horizon := c.now().Add(-c.lookback)

	var out []Article
	err = c.walk(ctx, func(ts time.Time, art Article, ok bool) (bool, error) {
		if ts.Before(horizon) {
			return false, nil
		}
		if !ok || !(match.MatchString(art.Title) || match.MatchString(art.Body)) {
			return true, nil
		}
		out = append(out, art)
		return len(out) < c.keywordCap, nil
	})
	if err != nil {
		return nil, c.scrub(err)
	}
	return out, nil
}

// scrub flattens err and strips the access token from its text: client
// errors can echo the request URL, and these errors travel into logs.
func (c *Crawler) scrub(err error) error {
	if err == nil || len(c.secrets) == 0 {
		return err
	}
	return errors.New(redact.String(err.Error(), c.secrets...))
}

// visit receives each crawled post (newest first) with its local timestamp.
// ok is false when the event did not yield an article. Returning false stops
// the crawl.
type visit func(ts time.Time, art Article, ok bool) (bool, error)

// walk paginates backwards through the room timeline, feeding every message
// event to fn until fn stops the crawl, the history is exhausted, or the
// pagination depth bound is hit.
func (c *Crawler) walk(ctx context.Context, fn visit) error {
	from := ""
	for page := 0; page < c.maxPages; page++ {
		resp, err := c.page(ctx, from)
		if err != nil {
			return err
		}
		if len(resp.Chunk) == 0 {
			return nil
		}

		for _, evt := range resp.Chunk {
			art, ok := c.article(evt)
			ts := time.UnixMilli(evt.Timestamp).In(c.loc)
			more, err := fn(ts, art, ok)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}

		if resp.End == "" {
			return nil
		}
		from = resp.End
	}
	slog.Warn("crawler: pagination depth bound hit", "room", c.room, "pages", c.maxPages)
	return nil
}

// page fetches one timeline page, honoring rate limits: on M_LIMIT_EXCEEDED
// the crawl suspends for the server-provided retry_after_ms and re-requests
// the same page, never skipping data. Retries are bounded; past the cap the
// rate limit surfaces as an ordinary fetch failure.
func (c *Crawler) page(ctx context.Context, from string) (*mautrix.RespMessages, error) {
	var resp *mautrix.RespMessages
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  maxPageRetries,
		InitialDelay: time.Second,
		MaxDelay:     time.Minute,
		ShouldRetry: func(err error) bool {
			return errors.Is(err, mautrix.MLimitExceeded)
		},
		WaitHint: rateLimitWait,
	}, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		r, err := c.api.Messages(ctx, c.room, from, "", mautrix.DirectionBackward, nil, c.pageSize)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("page history of %s: %w", c.room, err)
	}
	return resp, nil
}

// rateLimitWait extracts the homeserver's retry_after_ms from a rate-limit
// error, when present.
func rateLimitWait(err error) (time.Duration, bool) {
	var httpErr mautrix.HTTPError
	if !errors.As(err, &httpErr) || httpErr.RespError == nil {
		return 0, false
	}
	ms, ok := httpErr.RespError.ExtraData["retry_after_ms"].(float64)
	if !ok || ms <= 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// article converts one timeline event into an Article. Non-message events
// and non-text messages yield ok=false.
func (c *Crawler) article(evt *event.Event) (Article, bool) {
	if evt.Type != event.EventMessage {
		return Article{}, false
	}
	// Events from /messages arrive with raw content only.
	_ = evt.Content.ParseRaw(evt.Type)
	msg := evt.Content.AsMessage()
	if msg == nil || (msg.MsgType != event.MsgText && msg.MsgType != event.MsgNotice) {
		return Article{}, false
	}

	formatted := ""
	if msg.Format == event.FormatHTML {
		formatted = msg.FormattedBody
	}
	return ExtractPost(msg.Body, formatted, c.deny)
}
