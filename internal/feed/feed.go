// Package feed produces the machine-readable site artifacts: the RSS feed of
// the default language, the XML sitemap of every language and robots.txt.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/markdown"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
)

const (
	RSSContentType     = "application/rss+xml; charset=utf-8"
	SitemapContentType = "application/xml; charset=utf-8"
	RobotsContentType  = "text/plain; charset=utf-8"

	DefaultRSSLimit = 20
)

// SettingsSource supplies site settings. *settings.Cache implements it.
type SettingsSource interface {
	Get(ctx context.Context) content.Settings
}

// PostLister supplies post listings. *content.Client implements it.
type PostLister interface {
	GetPosts(ctx context.Context, q content.PostQuery) content.Page[content.Post]
	GetAllPostsForSitemap(ctx context.Context) []content.Post
}

// Config describes the public site the feeds point at.
type Config struct {
	SiteURL         string
	DefaultLanguage content.Language
	RSSLimit        int
}

// Generator builds feeds from the content sources.
type Generator struct {
	settings SettingsSource
	posts    PostLister
	renderer *markdown.Renderer
	cfg      Config
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock replaces time.Now for lastBuildDate.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithMetrics overrides the collectors the generator reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator creates a Generator.
func NewGenerator(settings SettingsSource, posts PostLister, renderer *markdown.Renderer, cfg Config, opts ...Option) *Generator {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = content.DefaultLanguage
	}
	if cfg.RSSLimit <= 0 {
		cfg.RSSLimit = DefaultRSSLimit
	}
	if renderer == nil {
		renderer = markdown.New(nil)
	}
	g := &Generator{
		settings: settings,
		posts:    posts,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
		logger:   slog.Default().With("component", "feed"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = metrics.Default()
	}
	return g
}

func (g *Generator) record(feed string, degraded bool) {
	status := "full"
	if degraded {
		status = "degraded"
	}
	g.metrics.FeedGenerationsTotal.WithLabelValues(feed, status).Inc()
}
