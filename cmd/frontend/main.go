// Command frontend serves the blog: RSS, sitemap and robots.txt, plus a JSON
// API of settings, listings and rendered articles backed by the content API.
//
// Usage:
//
//	go run ./cmd/frontend [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/article"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/article/cache"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/delivery"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/feed"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/fetcher"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/invalidation"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/sanitizer"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/settings"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting blog frontend",
		"port", cfg.Server.Port,
		"upstream", cfg.Upstream.BaseURL,
		"site", cfg.Site.URL,
	)

	defaultLang, ok := content.ParseLanguage(cfg.Site.DefaultLanguage)
	if !ok {
		slog.Error("unsupported default language", "lang", cfg.Site.DefaultLanguage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.Default()
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	f := fetcher.New(
		fetcher.WithBreaker(fetcher.NewBreaker(cfg.Upstream.Breaker, m)),
		fetcher.WithMetrics(m),
	)
	contentClient := content.NewClient(cfg.Upstream.BaseURL, f, fetcher.OptionsFromConfig(cfg.Upstream), m)
	settingsCache := settings.NewCache(contentClient, cfg.Settings.TTL, settings.WithMetrics(m))
	renderer := markdown.New(sanitizer.New())

	checker := health.NewChecker()
	checker.Register("content_api", true, health.HTTPCheck(
		&http.Client{Timeout: cfg.Upstream.Timeout},
		contentClient.Endpoint("settings", nil),
	))

	var articleCache *cache.Cache[*article.Article]
	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, article caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			articleCache = cache.New[*article.Article](redisClient, cfg.Redis.CacheTTL, m)
			checker.Register("redis", false, health.PingCheck(redisClient))
			slog.Info("article cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	builder := article.NewBuilder(contentClient, renderer, article.Options{
		SiteURL:      cfg.Site.URL,
		PoolSize:     cfg.Related.PoolSize,
		RelatedLimit: cfg.Related.Limit,
		Cache:        articleCache,
	})
	feeds := feed.NewGenerator(settingsCache, contentClient, renderer, feed.Config{
		SiteURL:         cfg.Site.URL,
		DefaultLanguage: defaultLang,
		RSSLimit:        cfg.Feed.RSSLimit,
	}, feed.WithMetrics(m))
	invalidator := invalidation.NewHandler(settingsCache, builder, m)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ContentInvalidate, invalidator.HandleMessage)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("invalidation consumer error", "error", err)
			}
		}()
		slog.Info("invalidation consumer started", "topic", cfg.Kafka.Topics.ContentInvalidate)
	}

	limiter := delivery.NewIPLimiter(cfg.RateLimit.SearchPerMinute, cfg.RateLimit.Burst)
	go limiter.Run(ctx)

	h := delivery.NewHandler(delivery.Deps{
		Content:     contentClient,
		Articles:    builder,
		Settings:    settingsCache,
		Feeds:       feeds,
		Invalidator: invalidator,
	})
	router := delivery.NewRouter(h, delivery.RouterOptions{
		Health:         checker,
		Limiter:        limiter,
		Metrics:        m,
		RequestTimeout: cfg.Server.WriteTimeout,
		AdminToken:     cfg.Admin.Token,
	})
	if cfg.Admin.Token == "" {
		slog.Warn("admin token not set, cache endpoints disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("blog frontend listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("blog frontend stopped")
}
