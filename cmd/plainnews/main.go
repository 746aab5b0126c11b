package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/avoronova/plainnews/common/version"
	"github.com/avoronova/plainnews/internal/alice"
	"github.com/avoronova/plainnews/internal/config"
	"github.com/avoronova/plainnews/internal/content"
	"github.com/avoronova/plainnews/internal/dialog"
	"github.com/avoronova/plainnews/internal/session"
)

// requiredEnv is printed by the startup self-check so a misconfigured deploy
// is obvious from the first lines of the log.
var requiredEnv = []string{
	"MATRIX_HOMESERVER",
	"MATRIX_USER_ID",
	"MATRIX_ACCESS_TOKEN",
}

func main() {
	fmt.Printf("plainnews webhook\n")
	fmt.Printf("Version: %s\n", version.Version)
	fmt.Printf("Commit: %s\n", version.GitCommit)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Println()

	// Configure structured logging.
	logLevel := slog.LevelInfo
	var logHandler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		logHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	slog.SetDefault(slog.New(logHandler))

	// A local .env is a convenience for development; production sets real
	// environment variables.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	checkEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(1)
	}

	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		slog.Error("source list error", "err", err)
		os.Exit(1)
	}

	crawler, err := content.NewCrawler(content.CrawlerConfig{
		Homeserver:   cfg.MatrixHomeserver,
		UserID:       cfg.MatrixUserID,
		AccessToken:  cfg.MatrixAccessToken,
		Room:         sources.Channel.Room,
		DenyTerms:    sources.Channel.Denylist,
		LookbackDays: sources.Channel.LookbackDays,
		KeywordCap:   sources.Channel.KeywordCap,
		PageSize:     sources.Channel.PageSize,
	})
	if err != nil {
		slog.Error("crawler setup error", "err", err)
		os.Exit(1)
	}

	feeds := content.NewFeedSet(sources.Feeds, content.FeedConfig{})
	cache := content.NewCache(content.NewSourceSet(feeds, crawler), content.CacheConfig{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.CacheEntries,
	})

	sessions := session.NewStore(
		func() dialog.State { return dialog.AwaitingInput{} },
		session.Config{MaxSessions: cfg.MaxSessions},
	)
	engine := dialog.NewEngine(cache, sessions, dialog.Config{ChunkLimit: cfg.ChunkLimit})

	server := alice.NewServer(engine, alice.ServerConfig{
		Addr:        cfg.HTTPAddr,
		TurnTimeout: cfg.TurnTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Joining the channel can wait on federation; do it in the background so
	// the webhook comes up immediately.
	go func() {
		if err := crawler.Join(ctx); err != nil {
			slog.Warn("channel join failed, history crawl may be empty", "err", err)
		}
	}()

	if err := server.Start(ctx); err != nil {
		slog.Error("server start error", "err", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.Info("shutting down")
	server.Stop()
}

// checkEnv logs the presence of each required variable without printing its
// value.
func checkEnv() {
	for _, name := range requiredEnv {
		if os.Getenv(name) == "" {
			slog.Warn("environment variable missing", "name", name)
		} else {
			slog.Info("environment variable set", "name", name)
		}
	}
}
