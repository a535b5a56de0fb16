package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := NewClient(addr, "", 0)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, "test:"+t.Name(), time.Minute)
}

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	var got doc
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "k", doc{Name: "lab", Count: 3}))
	require.NoError(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, doc{Name: "lab", Count: 3}, got)

	require.NoError(t, c.Delete(ctx, "k", "missing"))
	assert.ErrorIs(t, c.GetJSON(ctx, "k", &got), ErrCacheMiss)
}

func TestRedisCache_Generation(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Delete(ctx, "day"))

	gen, err := c.Generation(ctx, "day")
	require.NoError(t, err)
	assert.Zero(t, gen)

	for want := int64(1); want <= 3; want++ {
		gen, err = c.Bump(ctx, "day")
		require.NoError(t, err)
		assert.Equal(t, want, gen)
	}

	gen, err = c.Generation(ctx, "day")
	require.NoError(t, err)
	assert.Equal(t, int64(3), gen)

	ttl, err := c.client.TTL(ctx, c.key("day")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, c.ttl)
}

func TestRedisCache_DeleteNothing(t *testing.T) {
	c := NewRedisCache(nil, "unused", time.Second)
	assert.NoError(t, c.Delete(context.Background()))
}
