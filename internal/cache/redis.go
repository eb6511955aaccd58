// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
)

// redisOpTimeout bounds a single cache round trip so a slow redis degrades
// to a miss instead of stalling the request.
const redisOpTimeout = 500 * time.Millisecond

// NewRedisClient connects and pings redis.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// Redis is a Cacher shared across replicas. Keys are stored as
// <prefix><namespace>:<key> with a millisecond TTL.
type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
	name   string

	hits   atomic.Int64
	misses atomic.Int64
	clears atomic.Int64
}

// NewRedis creates a redis-backed cache in namespace.
func NewRedis(rdb goredis.UniversalClient, prefix, namespace string) *Redis {
	return &Redis{
		rdb:    rdb,
		prefix: prefix + namespace + ":",
		name:   namespace,
	}
}

// Get returns the value for key; redis errors count as misses.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	val, err := c.rdb.Get(opCtx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Redis cache get failed")
		}
		c.misses.Add(1)
		metrics.RecordCacheLookup(c.name, false)
		return nil, false
	}
	c.hits.Add(1)
	metrics.RecordCacheLookup(c.name, true)
	return val, true
}

// Set writes value with SET PX.
func (c *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := c.rdb.Set(opCtx, c.prefix+key, value, ttl).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Redis cache set failed")
	}
}

// Delete removes key.
func (c *Redis) Delete(ctx context.Context, key string) {
	opCtx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := c.rdb.Del(opCtx, c.prefix+key).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Redis cache delete failed")
	}
}

// Clear deletes every key under this cache's prefix with SCAN and DEL.
func (c *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	var deleted int64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.prefix+"*", 500).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", c.prefix, err)
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("redis del %s: %w", c.prefix, err)
			}
			deleted += n
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	c.clears.Add(deleted)
	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(deleted))
	return nil
}

// Stats returns this process's view of the shared cache.
func (c *Redis) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.clears.Load(),
	}
}
