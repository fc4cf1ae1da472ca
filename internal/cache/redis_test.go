package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vendo/internal/config"
)

type testStruct struct {
	Name string
	Age  int
}

func setupTestCache(t *testing.T) *Cache {
	cache, _ := setupTestCacheWithServer(t)
	return cache
}

func setupTestCacheWithServer(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := testStruct{Name: "Alice", Age: 30}
	err := cache.Set("vendo_user_usr_1", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get("vendo_user_usr_1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set("key", "value", time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate("key")
	require.NoError(t, err)

	var out string
	found, err := cache.Get("key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Db.Set(context.Background(), "bad", []byte("not-json"), time.Minute).Err()
	require.NoError(t, err)

	var out testStruct
	found, err := cache.Get("bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:9999",
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCacheWithServer(t)

	require.NoError(t, cache.Set(UnblurKey("viewer-1"), []string{"hero-1"}, time.Hour))

	var ids []string
	found, err := cache.Get(UnblurKey("viewer-1"), &ids)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"hero-1"}, ids)

	mr.FastForward(2 * time.Hour)

	found, err = cache.Get(UnblurKey("viewer-1"), &ids)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "vendo_user_usr_1", UserKey("usr_1"))
	assert.Equal(t, "vendo_links_usr_1", LinksKey("usr_1"))
	assert.Equal(t, "vendo_unblur_abc", UnblurKey("abc"))
	assert.Equal(t, "vendo_insight_usr_1", InsightKey("usr_1"))
}

func TestSimulatedClicks(t *testing.T) {
	cache, mr := setupTestCacheWithServer(t)

	require.NoError(t, cache.AddSimulatedClicks("u1", "l1", 2))
	require.NoError(t, cache.AddSimulatedClicks("u1", "l1", 3))
	require.NoError(t, cache.AddSimulatedClicks("u1", "l2", 1))
	require.NoError(t, cache.AddSimulatedClicks("u2", "l9", 7))

	got, err := cache.SimulatedClicks("u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"l1": 5, "l2": 1}, got)
	assert.Equal(t, SimulatedClicksTTL, mr.TTL(SimulatedClicksKey("u1")))

	empty, err := cache.SimulatedClicks("nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
