package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/redis"
)

type entry struct {
	Slug string `json:"slug"`
	HTML string `json:"html"`
}

func newTestCache(t *testing.T) (*Cache[entry], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := pkgredis.NewClient(config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return New[entry](client, time.Minute, metrics.New(nil)), mr
}

func TestGetOrComputeStoresResult(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var computed atomic.Int32
	compute := func() (entry, error) {
		computed.Add(1)
		return entry{Slug: "hello", HTML: "<p>hi</p>"}, nil
	}

	v, hit, err := c.GetOrCompute(ctx, "en", "hello", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "<p>hi</p>", v.HTML)
	assert.True(t, mr.Exists("article:en:hello"))

	v, hit, err = c.GetOrCompute(ctx, "en", "hello", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hello", v.Slug)
	assert.EqualValues(t, 1, computed.Load())
	assert.Equal(t, Stats{Hits: 1, Misses: 1}, c.Stats())
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	c.Set(ctx, "tr", "a", entry{Slug: "a"})

	mr.FastForward(2 * time.Minute)
	_, ok := c.Get(ctx, "tr", "a")
	assert.False(t, ok)
}

func TestComputeErrorIsNotCached(t *testing.T) {
	c, mr := newTestCache(t)
	boom := errors.New("not found")

	_, _, err := c.GetOrCompute(context.Background(), "de", "missing", func() (entry, error) {
		return entry{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("article:de:missing"))
}

func TestConcurrentComputeCollapses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	var computed atomic.Int32
	release := make(chan struct{})
	compute := func() (entry, error) {
		computed.Add(1)
		<-release
		return entry{Slug: "slow"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrCompute(ctx, "en", "slow", compute)
			assert.NoError(t, err)
			assert.Equal(t, "slow", v.Slug)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, computed.Load(), int32(2))
}

func TestInvalidation(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	for _, lang := range []string{"tr", "en", "de"} {
		c.Set(ctx, lang, "post", entry{Slug: "post"})
	}
	c.Set(ctx, "en", "other", entry{Slug: "other"})
	mr.Set("settings", "keep")

	require.NoError(t, c.Invalidate(ctx, "tr", "post"))
	assert.False(t, mr.Exists("article:tr:post"))

	require.NoError(t, c.InvalidateSlug(ctx, []string{"en", "de"}, "post"))
	assert.False(t, mr.Exists("article:en:post"))
	assert.False(t, mr.Exists("article:de:post"))
	assert.True(t, mr.Exists("article:en:other"))

	require.NoError(t, c.InvalidateAll(ctx))
	assert.False(t, mr.Exists("article:en:other"))
	assert.True(t, mr.Exists("settings"))
}
