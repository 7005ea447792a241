package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCredential struct {
	ProviderID string `json:"provider_id"`
	Username   string `json:"username"`
	Host       string `json:"host"`
}

func TestNewSelectsBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		c, err := New(Config{Type: "memory"})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("empty type defaults to memory", func(t *testing.T) {
		c, err := New(Config{})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &MemoryCache{}, c)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := New(Config{Type: "memcached"})
		assert.ErrorContains(t, err, "unknown cache type")
	})
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "creds:acme", []byte("smtp://relay.acme.test"), 0))

	got, err := c.Get(ctx, "creds:acme")
	require.NoError(t, err)
	assert.Equal(t, []byte("smtp://relay.acme.test"), got)

	_, err = c.Get(ctx, "creds:missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheGetCopiesValue(t *testing.T) {
	c := NewMemoryCache(Config{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("original"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)

	got[0] = 'X'

	again, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(Config{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "creds:acme", []byte("v"), 20*time.Millisecond))

	_, err := c.Get(ctx, "creds:acme")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = c.Get(ctx, "creds:acme")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheDelete(t *testing.T) {
	c := NewMemoryCache(Config{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "creds:acme", []byte("v"), 0))
	require.NoError(t, c.Delete(ctx, "creds:acme"))

	_, err := c.Get(ctx, "creds:acme")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Deleting an absent key is not an error.
	assert.NoError(t, c.Delete(ctx, "creds:acme"))
}

func TestMemoryCacheEvictsOldestAtCap(t *testing.T) {
	c := NewMemoryCache(Config{MaxEntries: 2})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "creds:a", []byte("a"), 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "creds:b", []byte("b"), 0))
	time.Sleep(time.Millisecond)

	// Touch a so b becomes the eviction candidate.
	_, err := c.Get(ctx, "creds:a")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	require.NoError(t, c.Set(ctx, "creds:c", []byte("c"), 0))

	assert.Equal(t, 2, c.Len())
	_, err = c.Get(ctx, "creds:b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "creds:a")
	assert.NoError(t, err)
}

func TestMemoryCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(Config{MaxEntries: 1})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "creds:a", []byte("v1"), 0))
	require.NoError(t, c.Set(ctx, "creds:a", []byte("v2"), 0))

	got, err := c.Get(ctx, "creds:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheJSON(t *testing.T) {
	c := NewMemoryCache(Config{DefaultTTL: time.Minute})
	defer c.Close()
	ctx := context.Background()

	want := cachedCredential{
		ProviderID: "prov-1",
		Username:   "dispatch@acme.test",
		Host:       "relay.acme.test",
	}
	require.NoError(t, c.SetJSON(ctx, "creds:prov-1", want, 0))

	var got cachedCredential
	require.NoError(t, c.GetJSON(ctx, "creds:prov-1", &got))
	assert.Equal(t, want, got)

	err := c.GetJSON(ctx, "creds:absent", &got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCacheSetJSONRejectsUnmarshalable(t *testing.T) {
	c := NewMemoryCache(Config{})
	defer c.Close()

	err := c.SetJSON(context.Background(), "k", make(chan int), 0)
	assert.Error(t, err)
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(Config{})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
