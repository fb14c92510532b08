package redis

import (
	"context"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/pkg/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(config.RedisConfig{Addr: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestJSONRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	type payload struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, client.SetJSON(ctx, "article:en:hello", payload{Slug: "hello"}, time.Minute))

	var got payload
	ok, err := client.GetJSON(ctx, "article:en:hello", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", got.Slug)

	mr.FastForward(2 * time.Minute)
	ok, err = client.GetJSON(ctx, "article:en:hello", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlushByPattern(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "article:a", "1", 0))
	require.NoError(t, client.Set(ctx, "article:b", "2", 0))
	require.NoError(t, client.Set(ctx, "other", "3", 0))

	n, err := client.FlushByPattern(ctx, "article:*")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = client.Get(ctx, "article:a")
	assert.True(t, IsNilError(err))
	v, err := client.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestNewClientUnreachable(t *testing.T) {
	_, err := NewClient(config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
