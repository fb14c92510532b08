// Package cache stores assembled articles in Redis for a short TTL and
// collapses concurrent builds of the same article into one.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/redis"
)

const keyPrefix = "article:"

// Store is the Redis surface the cache needs. *redis.Client implements it.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

var _ Store = (*pkgredis.Client)(nil)

// Stats is a snapshot of cache effectiveness since start.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Cache is a JSON cache of T values keyed by language and slug.
type Cache[T any] struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a cache over store. m may be nil to use the default metrics.
func New[T any](store Store, ttl time.Duration, m *metrics.Metrics) *Cache[T] {
	if m == nil {
		m = metrics.Default()
	}
	return &Cache[T]{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "article-cache"),
	}
}

// Key builds the Redis key for a language and slug.
func Key(lang, slug string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, lang, slug)
}

// Get returns the cached value. Redis and decode failures count as misses.
func (c *Cache[T]) Get(ctx context.Context, lang, slug string) (T, bool) {
	var value T
	key := Key(lang, slug)
	ok, err := c.store.GetJSON(ctx, key, &value)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.metrics.ArticleCacheTotal.WithLabelValues("error").Inc()
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	if !ok {
		c.metrics.ArticleCacheTotal.WithLabelValues("miss").Inc()
		c.misses.Add(1)
		return value, false
	}
	c.metrics.ArticleCacheTotal.WithLabelValues("hit").Inc()
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return value, true
}

// Set stores value under lang and slug. Failures are logged only.
func (c *Cache[T]) Set(ctx context.Context, lang, slug string, value T) {
	key := Key(lang, slug)
	if err := c.store.SetJSON(ctx, key, value, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached value or runs compute once per key across
// concurrent callers, storing its result. The bool reports a cache hit.
// Errors from compute are returned and nothing is stored.
func (c *Cache[T]) GetOrCompute(ctx context.Context, lang, slug string, compute func() (T, error)) (T, bool, error) {
	if value, ok := c.Get(ctx, lang, slug); ok {
		return value, true, nil
	}
	val, err, _ := c.group.Do(Key(lang, slug), func() (interface{}, error) {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, lang, slug, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return val.(T), false, nil
}

// Invalidate removes one entry.
func (c *Cache[T]) Invalidate(ctx context.Context, lang, slug string) error {
	key := Key(lang, slug)
	if err := c.store.Del(ctx, key); err != nil {
		return fmt.Errorf("invalidating %s: %w", key, err)
	}
	c.logger.Info("cache entry invalidated", "key", key)
	return nil
}

// InvalidateSlug removes the entry for slug in every given language.
func (c *Cache[T]) InvalidateSlug(ctx context.Context, langs []string, slug string) error {
	keys := make([]string, len(langs))
	for i, lang := range langs {
		keys[i] = Key(lang, slug)
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("invalidating slug %s: %w", slug, err)
	}
	c.logger.Info("cache slug invalidated", "slug", slug, "languages", len(langs))
	return nil
}

// InvalidateAll removes every article entry.
func (c *Cache[T]) InvalidateAll(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating article cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts.
func (c *Cache[T]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
