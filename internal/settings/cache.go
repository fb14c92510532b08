// Package settings caches the site settings document for a fixed TTL and
// falls back to built-in defaults whenever the content API cannot serve it.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
	apperrors "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
)

// DefaultTTL is how long a fetched settings document is served from memory.
const DefaultTTL = 5 * time.Minute

// Source decodes a content API resource. *content.Client implements it.
type Source interface {
	GetJSON(ctx context.Context, resource string, query url.Values, dst any) error
}

// Cache holds the last successfully fetched settings. The zero value is not
// usable; call NewCache.
type Cache struct {
	source  Source
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu        sync.Mutex
	value     content.Settings
	fetchedAt time.Time
	valid     bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics overrides the collectors the cache reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// NewCache creates a settings cache. A non-positive ttl selects DefaultTTL.
func NewCache(source Source, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: slog.Default().With("component", "settings-cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.Default()
	}
	return c
}

// Get returns the cached settings while they are younger than the TTL and
// refetches otherwise. It never fails: when the refetch does, the defaults
// are returned and the cache is left as it was.
func (c *Cache) Get(ctx context.Context) content.Settings {
	now := c.now()
	c.mu.Lock()
	if c.valid && now.Sub(c.fetchedAt) < c.ttl {
		v := c.value
		c.mu.Unlock()
		c.metrics.SettingsCacheTotal.WithLabelValues("hit").Inc()
		return v
	}
	c.mu.Unlock()

	var env content.Envelope[*content.Settings]
	err := c.source.GetJSON(ctx, "settings", nil, &env)
	if err == nil && env.Data == nil {
		err = fmt.Errorf("%w: settings envelope has no data", apperrors.ErrMalformedPayload)
	}
	if err != nil {
		c.metrics.SettingsCacheTotal.WithLabelValues("fallback").Inc()
		logger.FromContext(ctx).Warn("serving default settings",
			"component", "settings-cache",
			"error", err,
		)
		return content.DefaultSettings()
	}

	c.mu.Lock()
	c.value = *env.Data
	c.fetchedAt = now
	c.valid = true
	c.mu.Unlock()
	c.metrics.SettingsCacheTotal.WithLabelValues("refresh").Inc()
	return *env.Data
}

// Invalidate forces the next Get to refetch.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
	c.logger.Info("settings cache invalidated")
}

// Reset clears the cached value entirely.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.value = content.Settings{}
	c.fetchedAt = time.Time{}
	c.valid = false
	c.mu.Unlock()
}

// Age reports how old the cached value is, and false when nothing is cached.
func (c *Cache) Age() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return 0, false
	}
	return c.now().Sub(c.fetchedAt), true
}
