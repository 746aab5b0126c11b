// Package config loads the skill's configuration: operational settings from
// environment variables and the content source list from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avoronova/plainnews/common/environment"
)

// Defaults for optional settings.
const (
	DefaultHTTPAddr    = ":5000"
	DefaultSourcesPath = "./sources.yaml"
	DefaultCacheTTL    = 5 * time.Minute
	DefaultTurnTimeout = 4 * time.Second
)

// Config holds everything read from the environment.
type Config struct {
	// HTTPAddr is the TCP address the webhook server listens on.
	HTTPAddr string
	// SourcesPath is the path of the YAML source list.
	SourcesPath string

	// Matrix credentials for the press-channel crawler.
	MatrixHomeserver  string
	MatrixUserID      string
	MatrixAccessToken string

	// CacheTTL is how long a fetched article pool stays fresh.
	CacheTTL time.Duration
	// TurnTimeout bounds one webhook turn; the platform gives up on the
	// request shortly after 4.5 seconds, so the default leaves headroom to
	// still send the apology reply.
	TurnTimeout time.Duration
	// ChunkLimit caps one spoken body chunk in runes. Zero picks the dialog
	// engine's default.
	ChunkLimit int
	// MaxSessions bounds the session store. Zero picks the store's default.
	MaxSessions int
	// CacheEntries bounds the content cache. Zero picks the cache's default.
	CacheEntries int
}

// Load reads the configuration from the environment. Missing required
// variables are collected into one error so the operator sees the full list
// at once.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     environment.StringOr("HTTP_ADDR", DefaultHTTPAddr),
		SourcesPath:  environment.StringOr("SOURCES_PATH", DefaultSourcesPath),
		CacheTTL:     environment.DurationOr("CACHE_TTL", DefaultCacheTTL),
		TurnTimeout:  environment.DurationOr("TURN_TIMEOUT", DefaultTurnTimeout),
		ChunkLimit:   environment.IntOr("CHUNK_LIMIT", 0),
		MaxSessions:  environment.IntOr("MAX_SESSIONS", 0),
		CacheEntries: environment.IntOr("CACHE_ENTRIES", 0),
	}

	var errs []error
	var err error
	if cfg.MatrixHomeserver, err = environment.RequiredString("MATRIX_HOMESERVER"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MatrixUserID, err = environment.RequiredString("MATRIX_USER_ID"); err != nil {
		errs = append(errs, err)
	}
	if cfg.MatrixAccessToken, err = environment.RequiredString("MATRIX_ACCESS_TOKEN"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Sources describes where articles come from: RSS feeds for today's pool and
// one press channel for the history crawl.
type Sources struct {
	// Feeds are the RSS feed URLs polled for today's headlines.
	Feeds []string `yaml:"feeds"`
	// Channel configures the press-channel crawl.
	Channel Channel `yaml:"channel"`
}

// Channel is the press-channel section of the source list.
type Channel struct {
	// Room is the Matrix room ID of the channel, e.g. "!news:example.org".
	Room string `yaml:"room"`
	// Denylist holds self-promotion markers stripped from posts.
	Denylist []string `yaml:"denylist"`
	// LookbackDays bounds the keyword scan. Zero picks the crawler default.
	LookbackDays int `yaml:"lookback_days"`
	// KeywordCap bounds keyword search results. Zero picks the crawler
	// default.
	KeywordCap int `yaml:"keyword_cap"`
	// PageSize is the history pagination chunk size. Zero picks the crawler
	// default.
	PageSize int `yaml:"page_size"`
}

// LoadSources reads and validates the YAML source list at path.
func LoadSources(path string) (*Sources, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	var src Sources
	if err := yaml.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("parse sources %s: %w", path, err)
	}
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sources %s: %w", path, err)
	}
	return &src, nil
}

// Validate checks the source list for mistakes that would otherwise surface
// as confusing runtime failures.
func (s *Sources) Validate() error {
	if len(s.Feeds) == 0 {
		return errors.New("feeds: at least one RSS feed URL is required")
	}
	for i, feed := range s.Feeds {
		u, err := url.Parse(feed)
		if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("feeds[%d]: %q is not an http(s) URL", i, feed)
		}
	}
	if s.Channel.Room == "" {
		return errors.New("channel.room is required")
	}
	if !strings.HasPrefix(s.Channel.Room, "!") {
		return fmt.Errorf("channel.room: %q is not a room ID (expected \"!room:server\")", s.Channel.Room)
	}
	if s.Channel.LookbackDays < 0 {
		return errors.New("channel.lookback_days must not be negative")
	}
	if s.Channel.KeywordCap < 0 {
		return errors.New("channel.keyword_cap must not be negative")
	}
	if s.Channel.PageSize < 0 {
		return errors.New("channel.page_size must not be negative")
	}
	return nil
}
