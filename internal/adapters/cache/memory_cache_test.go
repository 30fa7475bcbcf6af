package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

func entry(fp string, isSpam bool) *core.CacheEntry {
	return &core.CacheEntry{
		Fingerprint: core.Fingerprint(fp),
		IsSpam:      isSpam,
		Message:     "classified",
		CreatedAt:   time.Now(),
	}
}

func TestMemoryCachePutGet(t *testing.T) {
	c, err := NewMemoryCache(10, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Put(context.Background(), entry("fp-1", true)))

	got, err := c.Get(context.Background(), "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsSpam)
	assert.Equal(t, "classified", got.Message)
	assert.False(t, got.ExpiresAt.IsZero())
}

func TestMemoryCacheMiss(t *testing.T) {
	c, err := NewMemoryCache(10, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	got, err := c.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheExpiredEntryIsMiss(t *testing.T) {
	c, err := NewMemoryCache(10, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	e := entry("fp-1", true)
	e.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, c.Put(context.Background(), e))

	got, err := c.Get(context.Background(), "fp-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on access")
}

func TestMemoryCacheOverwriteIsIdempotent(t *testing.T) {
	c, err := NewMemoryCache(10, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Put(context.Background(), entry("fp-1", true)))
	require.NoError(t, c.Put(context.Background(), entry("fp-1", false)))

	got, err := c.Get(context.Background(), "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsSpam)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewMemoryCache(2, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, entry("fp-1", true)))
	require.NoError(t, c.Put(ctx, entry("fp-2", true)))

	// Touch fp-1 so fp-2 becomes the eviction candidate.
	_, err = c.Get(ctx, "fp-1")
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, entry("fp-3", true)))

	got, err := c.Get(ctx, "fp-2")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCacheCleanupSweep(t *testing.T) {
	c, err := NewMemoryCache(10, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)

	fresh := entry("fresh", true)
	stale := entry("stale", true)
	stale.ExpiresAt = time.Now().Add(-time.Minute)

	ctx := context.Background()
	require.NoError(t, c.Put(ctx, fresh))
	require.NoError(t, c.Put(ctx, stale))

	c.cleanup()

	assert.Equal(t, 1, c.Len())
	got, err := c.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
