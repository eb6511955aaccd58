// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package services

import (
	"context"
	"time"

	"github.com/tomtom215/insightboard/internal/logging"
)

// Sweeper is satisfied by *cache.Memory.
type Sweeper interface {
	Name() string
	Sweep() int
}

// CacheJanitorService drops expired entries from an in-process cache on a
// fixed interval. Reads already ignore expired entries; the janitor only
// bounds memory held by entries nobody asks for again.
type CacheJanitorService struct {
	cache    Sweeper
	interval time.Duration
}

// NewCacheJanitorService creates a janitor. A non-positive interval means
// one minute.
func NewCacheJanitorService(cache Sweeper, interval time.Duration) *CacheJanitorService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CacheJanitorService{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := j.cache.Sweep(); removed > 0 {
				logging.Debug().Str("cache", j.cache.Name()).Int("removed", removed).Msg("Expired cache entries swept")
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (j *CacheJanitorService) String() string {
	return "cache-janitor-" + j.cache.Name()
}
