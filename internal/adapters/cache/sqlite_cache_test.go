package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLite(t *testing.T, capacity int) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), capacity, time.Hour, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestSQLiteCachePutGet(t *testing.T) {
	c := newSQLite(t, 10)
	ctx := context.Background()

	e := entry("fp-1", true)
	require.NoError(t, c.Put(ctx, e))

	got, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsSpam)
	assert.Equal(t, "classified", got.Message)
}

func TestSQLiteCacheMissAndExpiry(t *testing.T) {
	c := newSQLite(t, 10)
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	stale := entry("stale", true)
	stale.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, c.Put(ctx, stale))

	got, err = c.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteCacheReplace(t *testing.T) {
	c := newSQLite(t, 10)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, entry("fp-1", true)))
	require.NoError(t, c.Put(ctx, entry("fp-1", false)))

	got, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsSpam)
}

func TestSQLiteCacheCleanupTrimsToCapacity(t *testing.T) {
	c := newSQLite(t, 2)
	ctx := context.Background()

	for i, fp := range []string{"fp-1", "fp-2", "fp-3"} {
		e := entry(fp, true)
		e.CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, c.Put(ctx, e))
	}

	require.NoError(t, c.cleanup(ctx))

	got, err := c.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.Nil(t, got, "oldest entry should be trimmed")

	got, err = c.Get(ctx, "fp-3")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
