package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

// MemoryCache is an in-memory implementation of the PredictionCache
// interface. Capacity is enforced by an LRU; expiry is lazy, checked on
// access, with a background sweep keeping long-idle entries from lingering.
type MemoryCache struct {
	entries     *lru.Cache
	ttl         time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMemoryCache creates a new in-memory prediction cache.
func NewMemoryCache(capacity int, ttl time.Duration, cleanupFreq time.Duration, logger *zap.Logger) (*MemoryCache, error) {
	entries, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU: %w", err)
	}

	cache := &MemoryCache{
		entries:     entries,
		ttl:         ttl,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache, nil
}

// Get retrieves a cached verdict. Expired entries are treated as misses and
// removed. A hit refreshes the entry's recency.
func (c *MemoryCache) Get(_ context.Context, fp core.Fingerprint) (*core.CacheEntry, error) {
	v, ok := c.entries.Get(fp)
	if !ok {
		return nil, nil
	}

	entry := v.(*core.CacheEntry)
	if time.Now().After(entry.ExpiresAt) {
		c.entries.Remove(fp)
		return nil, nil
	}

	return entry, nil
}

// Put stores a new entry. Inserting counts as access; at capacity the LRU
// evicts the least recently used entry.
func (c *MemoryCache) Put(_ context.Context, entry *core.CacheEntry) error {
	stored := *entry
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(c.ttl)
	}

	if evicted := c.entries.Add(stored.Fingerprint, &stored); evicted {
		c.logger.Debug("Evicted least recently used cache entry",
			zap.Int("capacity", c.entries.Len()))
	}
	return nil
}

// Len returns the number of entries currently held, expired or not.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// cleanup removes expired entries without refreshing recency.
func (c *MemoryCache) cleanup() {
	now := time.Now()
	expiredCount := 0

	for _, key := range c.entries.Keys() {
		v, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		if now.After(v.(*core.CacheEntry).ExpiresAt) {
			c.entries.Remove(key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	}
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	close(c.stopCh)
}
