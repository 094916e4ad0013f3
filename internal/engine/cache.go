package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"parqscope/internal/metrics"
	"parqscope/internal/model"
)

// StatsCache memoizes computed snapshots by (column, scope, stat set).
// Concurrent requests for the same key are collapsed so the computation runs
// at most once; later hits return the stored snapshot without touching the
// file. InvalidateAll drops everything atomically when a new file is opened.
type StatsCache struct {
	mu      sync.RWMutex
	entries map[model.CacheKey]*model.StatSnapshot
	version uint64

	group singleflight.Group
}

func NewStatsCache() *StatsCache {
	return &StatsCache{
		entries: make(map[model.CacheKey]*model.StatSnapshot),
	}
}

// Get returns the cached snapshot for the key, if any
func (c *StatsCache) Get(key model.CacheKey) (*model.StatSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[key]
	return snap, ok
}

// GetOrCompute returns the cached snapshot or runs compute exactly once for
// the key, with concurrent callers sharing the single in-flight computation.
// A result computed against a stale cache generation is returned to its
// callers but not stored. When the flight leader's context is cancelled,
// callers whose own context is still live rejoin a fresh flight instead of
// inheriting the leader's cancellation.
func (c *StatsCache) GetOrCompute(ctx context.Context, key model.CacheKey, compute func(context.Context) (*model.StatSnapshot, error)) (*model.StatSnapshot, error) {
	if snap, ok := c.Get(key); ok {
		metrics.RecordCacheHit()
		return snap, nil
	}
	metrics.RecordCacheMiss()

	for {
		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		result, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
			// A sibling may have stored it between our miss and the flight
			if snap, ok := c.Get(key); ok {
				return snap, nil
			}
			snap, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			c.put(key, snap, version)
			return snap, nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() == nil {
				continue
			}
			return nil, err
		}
		return result.(*model.StatSnapshot), nil
	}
}

func (c *StatsCache) put(key model.CacheKey, snap *model.StatSnapshot, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != version {
		// Cache was invalidated while this computation was in flight
		return
	}
	c.entries[key] = snap
}

// InvalidateAll drops every entry and bumps the generation so in-flight
// computations cannot repopulate stale results.
func (c *StatsCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[model.CacheKey]*model.StatSnapshot)
	c.version++
}

// Len returns the number of cached snapshots
func (c *StatsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
