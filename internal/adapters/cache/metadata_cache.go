package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/mikey/contract-spam-filter/internal/core"
)

// MetadataCache is an in-memory implementation of core.MetadataCache. It
// remembers merged provider lookups per (chain, address), negative answers
// included, so repeat requests for the same contract skip the provider
// fan-out. Capacity is enforced by an LRU; expiry is lazy, checked on access.
type MetadataCache struct {
	entries *lru.Cache
	ttl     time.Duration
	logger  *zap.Logger
}

type metadataKey struct {
	chainID core.ChainID
	address core.Address
}

type metadataEntry struct {
	lookup    core.MetadataLookup
	expiresAt time.Time
}

// NewMetadataCache creates a new in-memory metadata cache.
func NewMetadataCache(capacity int, ttl time.Duration, logger *zap.Logger) (*MetadataCache, error) {
	entries, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU: %w", err)
	}
	return &MetadataCache{
		entries: entries,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Get returns the cached lookup for the contract. Expired entries are
// treated as misses and removed. A hit refreshes the entry's recency.
func (c *MetadataCache) Get(chainID core.ChainID, address core.Address) (core.MetadataLookup, bool) {
	key := metadataKey{chainID: chainID, address: address}
	v, ok := c.entries.Get(key)
	if !ok {
		return core.MetadataLookup{}, false
	}

	entry := v.(*metadataEntry)
	if time.Now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return core.MetadataLookup{}, false
	}

	return entry.lookup, true
}

// Put stores a lookup outcome. At capacity the LRU evicts the least recently
// used entry.
func (c *MetadataCache) Put(chainID core.ChainID, address core.Address, lookup core.MetadataLookup) {
	key := metadataKey{chainID: chainID, address: address}
	entry := &metadataEntry{lookup: lookup, expiresAt: time.Now().Add(c.ttl)}

	if evicted := c.entries.Add(key, entry); evicted {
		c.logger.Debug("Evicted least recently used metadata entry",
			zap.Int("capacity", c.entries.Len()))
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *MetadataCache) Len() int {
	return c.entries.Len()
}
