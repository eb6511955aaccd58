// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/insightboard/internal/metrics"
)

// DefaultMaxEntries bounds a Memory cache. Row caches are keyed by filter
// combination, so the key space is client-controlled.
const DefaultMaxEntries = 10000

type entry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache guarded by an RWMutex.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]entry
	name       string
	maxEntries int
	now        func() time.Time

	statsMu sync.Mutex
	stats   Stats
}

// NewMemory creates an in-process cache. name labels its metrics.
// maxEntries <= 0 uses DefaultMaxEntries.
func NewMemory(name string, maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		entries:    make(map[string]entry),
		name:       name,
		maxEntries: maxEntries,
		now:        time.Now,
		stats:      Stats{LastCleanup: time.Now()},
	}
}

// Name returns the metrics label of this cache.
func (c *Memory) Name() string {
	return c.name
}

// Get returns the value for key when present and unexpired. An expired entry
// is removed and counted as a miss.
func (c *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.record(false, 0)
		return nil, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have replaced the entry.
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		c.record(false, 1)
		return nil, false
	}

	c.record(true, 0)
	return e.data, true
}

// Set stores value under key until now+ttl. A non-positive ttl is a no-op.
func (c *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := c.now()
	c.mu.Lock()
	var evicted int64
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		evicted = c.makeRoomLocked(now)
	}
	c.entries[key] = entry{data: value, expiresAt: now.Add(ttl)}
	size := len(c.entries)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalKeys = int64(size)
	c.stats.Evictions += evicted
	c.statsMu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(evicted))
	}
}

// makeRoomLocked drops expired entries, then the entry closest to expiry if
// the cache is still full. Must be called with mu held.
func (c *Memory) makeRoomLocked(now time.Time) int64 {
	var evicted int64
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			evicted++
		}
	}
	if len(c.entries) < c.maxEntries {
		return evicted
	}

	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.expiresAt.Before(oldest) {
			oldestKey, oldest = k, e.expiresAt
		}
	}
	delete(c.entries, oldestKey)
	return evicted + 1
}

// Delete removes key.
func (c *Memory) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.TotalKeys = int64(size)
	c.statsMu.Unlock()
	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
}

// Clear removes all entries in one swap.
func (c *Memory) Clear(_ context.Context) error {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Evictions += evicted
	c.stats.TotalKeys = 0
	c.statsMu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(0)
	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(evicted))
	return nil
}

// Sweep removes expired entries and returns how many were dropped.
// It is driven by the cache janitor service.
func (c *Memory) Sweep() int {
	now := c.now()
	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats.Evictions += int64(removed)
	c.stats.TotalKeys = int64(size)
	c.stats.LastCleanup = now
	c.statsMu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(removed))
	}
	return removed
}

// Stats returns a snapshot of the counters.
func (c *Memory) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

func (c *Memory) record(hit bool, evicted int64) {
	c.statsMu.Lock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.stats.Evictions += evicted
	c.statsMu.Unlock()

	metrics.RecordCacheLookup(c.name, hit)
	if evicted > 0 {
		metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(evicted))
	}
}

// GenerateKey creates a cache key from a prefix and a JSON-serializable value.
// Equal values produce equal keys.
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}
