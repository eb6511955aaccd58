// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package cache provides the TTL result caches for row queries and facets.
//
// Values are immutable byte slices (JSON produced by the caller), so every
// backend returns exactly what was stored and readers never observe a torn
// value. Expiry is lazy: an entry is visible only while now < expiry.
// A backend failure is logged and treated as a miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/insightboard/internal/config"
)

// Cacher is a TTL key/value cache.
type Cacher interface {
	// Get returns the value and true if the key is present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl. The last writer wins.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key if present.
	Delete(ctx context.Context, key string)

	// Clear removes every entry in this cache's namespace.
	Clear(ctx context.Context) error

	// Stats returns a snapshot of hit/miss counters.
	Stats() Stats
}

// Stats tracks cache performance.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Cache namespaces.
const (
	NamespaceRows   = "rows"
	NamespaceFacets = "facets"
)

// Caches is the pair of caches the service uses, on one backend.
type Caches struct {
	Rows   Cacher
	Facets Cacher

	// Sweepers are the in-process caches that need a janitor.
	Sweepers []*Memory

	closers []func() error
}

// Open builds the row and facet caches for cfg.Backend.
func Open(ctx context.Context, cfg config.CacheConfig) (*Caches, error) {
	switch cfg.Backend {
	case "", config.CacheMemory:
		rows := NewMemory(NamespaceRows, 0)
		facets := NewMemory(NamespaceFacets, 0)
		return &Caches{Rows: rows, Facets: facets, Sweepers: []*Memory{rows, facets}}, nil

	case config.CacheRedis:
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return &Caches{
			Rows:    NewRedis(client, cfg.Redis.Prefix, NamespaceRows),
			Facets:  NewRedis(client, cfg.Redis.Prefix, NamespaceFacets),
			closers: []func() error{client.Close},
		}, nil

	case config.CacheBadger:
		db, err := OpenBadgerDB(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		return &Caches{
			Rows:    NewBadger(db, NamespaceRows),
			Facets:  NewBadger(db, NamespaceFacets),
			closers: []func() error{db.Close},
		}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Clear empties both caches. Both are attempted even if one fails.
func (c *Caches) Clear(ctx context.Context) error {
	return errors.Join(c.Rows.Clear(ctx), c.Facets.Clear(ctx))
}

// Close releases backend connections.
func (c *Caches) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}

// compile-time checks
var (
	_ Cacher = (*Memory)(nil)
	_ Cacher = (*Redis)(nil)
	_ Cacher = (*Badger)(nil)
)
