package utils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, "test:", time.Minute), mr
}

func TestCacheSetGet(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	var got entry
	found, err := cache.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "a", entry{Name: "x", Count: 3}))
	assert.True(t, mr.Exists("test:a"), "keys carry the prefix")
	assert.Equal(t, time.Minute, mr.TTL("test:a"))

	found, err = cache.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Name: "x", Count: 3}, got)

	mr.FastForward(2 * time.Minute)
	found, err = cache.Get(ctx, "a", &got)
	require.NoError(t, err)
	assert.False(t, found, "expired")
}

func TestCacheCorruptEntry(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))
	var got entry
	found, err := cache.Get(context.Background(), "bad", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCacheDelete(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "a", 1))
	require.NoError(t, cache.Set(ctx, "b", 2))

	require.NoError(t, cache.Delete(ctx, "a", "b", "missing"))
	assert.False(t, mr.Exists("test:a"))
	assert.False(t, mr.Exists("test:b"))
	assert.NoError(t, cache.Delete(ctx))
}

func TestCacheDeletePrefix(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	for i := 0; i < 250; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("list:acct:1:page=%d", i), i))
	}
	require.NoError(t, cache.Set(ctx, "list:acct:2:page=1", 1))
	require.NoError(t, mr.Set("other:list:acct:1:page=1", "kept"))

	require.NoError(t, cache.DeletePrefix(ctx, "list:acct:1:"))
	assert.Len(t, mr.Keys(), 2)
	assert.True(t, mr.Exists("test:list:acct:2:page=1"))
	assert.True(t, mr.Exists("other:list:acct:1:page=1"), "other namespaces untouched")
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	var got entry
	found, err := cache.Get(ctx, "a", &got)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "a", entry{}))
	assert.NoError(t, cache.Delete(ctx, "a"))
	assert.NoError(t, cache.DeletePrefix(ctx, "a"))
}
