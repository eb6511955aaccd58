// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package insights orchestrates reads and ingest over the insights table.
//
// Service puts the row and facet caches, a circuit breaker and request
// coalescing in front of the store, serves the bundled dataset when the store
// is unavailable, and announces committed ingests to peers and dashboards.
//
// Read flow for Data and Insights:
//
//  1. Look up the normalized FilterSet key in the row cache.
//  2. On a miss, query the store through the breaker. Concurrent identical
//     misses share one query.
//  3. Cache the rows. Data also attaches the facet table, itself cached
//     under a fixed key with a longer TTL.
//  4. On StoreUnavailableError (including an open breaker), answer from the
//     fallback dataset. Fallback answers are never cached.
//
// Caches carry a generation number. Invalidation bumps it, and a query that
// started before an ingest drops its result instead of caching it. A write
// that races the bump is deleted again once the bump is seen.
package insights

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/insightboard/internal/cache"
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database"
	"github.com/tomtom215/insightboard/internal/events"
	"github.com/tomtom215/insightboard/internal/fallback"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
	"github.com/tomtom215/insightboard/internal/models"
	"github.com/tomtom215/insightboard/internal/validation"
)

// Data sources reported with each read.
const (
	SourceStore    = "store"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Cache key prefixes.
const (
	prefixData     = "data"
	prefixInsights = "insights"
	facetsKey      = "facets:all"
)

// Store is the subset of database.DB the service uses.
type Store interface {
	QueryRecords(ctx context.Context, fs models.FilterSet) ([]models.Record, error)
	Facets(ctx context.Context) (models.FacetTable, error)
	InsertBatch(ctx context.Context, records []models.Record) (int, error)
	Ping(ctx context.Context) error
}

// Publisher announces committed ingests to other replicas.
type Publisher interface {
	PublishDatasetChanged(ctx context.Context, count int) error
}

// Notifier pushes dataset changes to connected dashboards.
type Notifier interface {
	NotifyDatasetChanged(count int, origin string)
}

// Result is the answer to a read.
type Result struct {
	Records []models.Record
	// Facets is nil for Insights.
	Facets models.FacetTable
	Source string
}

// Service serves filtered reads, facets and ingest.
type Service struct {
	store    Store
	rows     cache.Cacher
	facets   cache.Cacher
	fallback *fallback.Provider
	breaker  *storeBreaker
	flight   singleflight.Group

	rowTTL   time.Duration
	facetTTL time.Duration

	// generation is bumped on every invalidation.
	generation atomic.Uint64

	publisher Publisher
	notifier  Notifier
}

// New creates the service.
func New(store Store, rows, facets cache.Cacher, fb *fallback.Provider, cfg config.CacheConfig) *Service {
	return &Service{
		store:    store,
		rows:     rows,
		facets:   facets,
		fallback: fb,
		breaker:  newStoreBreaker(breakerOpenTimeout),
		rowTTL:   cfg.RowTTL,
		facetTTL: cfg.EffectiveFacetTTL(),
	}
}

// SetPublisher sets the peer event publisher.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// SetNotifier sets the dashboard notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Data returns the rows matching fs together with the facet table.
func (s *Service) Data(ctx context.Context, fs models.FilterSet) (Result, error) {
	records, source, err := s.cachedRecords(ctx, prefixData, fs)
	if err == nil {
		var facets models.FacetTable
		facets, err = s.cachedFacets(ctx)
		if err == nil {
			return Result{Records: records, Facets: facets, Source: source}, nil
		}
	}
	if !database.IsStoreUnavailable(err) {
		return Result{}, err
	}

	s.fallback.Served(ctx, "data", err)
	return Result{
		Records: s.fallback.Records(ctx, fs),
		Facets:  s.fallback.Facets(ctx),
		Source:  SourceFallback,
	}, nil
}

// Insights returns the rows matching fs without facets.
func (s *Service) Insights(ctx context.Context, fs models.FilterSet) (Result, error) {
	records, source, err := s.cachedRecords(ctx, prefixInsights, fs)
	if err == nil {
		return Result{Records: records, Source: source}, nil
	}
	if !database.IsStoreUnavailable(err) {
		return Result{}, err
	}

	s.fallback.Served(ctx, "insights", err)
	return Result{Records: s.fallback.Records(ctx, fs), Source: SourceFallback}, nil
}

// Facets returns the facet table, from cache when possible.
func (s *Service) Facets(ctx context.Context) (models.FacetTable, string, error) {
	facets, err := s.cachedFacets(ctx)
	if err == nil {
		return facets, SourceStore, nil
	}
	if !database.IsStoreUnavailable(err) {
		return nil, "", err
	}
	s.fallback.Served(ctx, "facets", err)
	return s.fallback.Facets(ctx), SourceFallback, nil
}

// Warmup primes the facet cache. Failures are logged only.
func (s *Service) Warmup(ctx context.Context) {
	if _, err := s.cachedFacets(ctx); err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Facet warmup skipped")
	}
}

// Ingest inserts records atomically, clears both caches and announces the
// change. The caches are empty by the time Ingest returns.
func (s *Service) Ingest(ctx context.Context, records []models.Record) (int, error) {
	switch {
	case len(records) == 0:
		metrics.RecordIngest("rejected", 0)
		return 0, validation.NewValidationError("body", "request body must be a non-empty array")
	case len(records) > models.MaxBatchSize:
		metrics.RecordIngest("rejected", 0)
		return 0, validation.NewValidationError("body", "batch of %d records exceeds the maximum of %d", len(records), models.MaxBatchSize)
	}

	n, err := s.store.InsertBatch(ctx, records)
	if err != nil {
		metrics.RecordIngest(ingestResult(err), 0)
		return 0, err
	}
	metrics.RecordIngest("committed", n)

	s.InvalidateCaches(ctx, "ingest")

	if s.publisher != nil {
		if err := s.publisher.PublishDatasetChanged(ctx, n); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("count", n).Msg("Failed to announce dataset change to peers")
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyDatasetChanged(n, "local")
	}

	logging.Ctx(ctx).Info().Int("count", n).Msg("Ingested records")
	return n, nil
}

func ingestResult(err error) string {
	if database.IsStoreUnavailable(err) {
		return "unavailable"
	}
	return "failed"
}

// HandlePeerEvent reacts to an ingest committed by another replica.
func (s *Service) HandlePeerEvent(ctx context.Context, ev events.DatasetChanged) {
	s.InvalidateCaches(ctx, "peer")
	if s.notifier != nil {
		s.notifier.NotifyDatasetChanged(ev.Count, "peer")
	}
}

// InvalidateCaches clears the row and facet caches. A backend failure is
// logged, not returned.
func (s *Service) InvalidateCaches(ctx context.Context, reason string) {
	s.generation.Add(1)
	metrics.CacheInvalidations.WithLabelValues(reason).Inc()
	if err := errors.Join(s.rows.Clear(ctx), s.facets.Clear(ctx)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("reason", reason).Msg("Cache clear failed")
	}
}

// Ping checks the store directly, bypassing the breaker.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// BreakerState returns the store breaker state: closed, half-open or open.
func (s *Service) BreakerState() string {
	return stateToString(s.breaker.state())
}

// BreakerOpen reports whether reads currently bypass the store.
func (s *Service) BreakerOpen() bool {
	return s.breaker.state() == gobreaker.StateOpen
}

func (s *Service) cachedRecords(ctx context.Context, prefix string, fs models.FilterSet) ([]models.Record, string, error) {
	key := cache.GenerateKey(prefix, fs.Normalize())

	if raw, ok := s.rows.Get(ctx, key); ok {
		var records []models.Record
		if err := json.Unmarshal(raw, &records); err == nil {
			return records, SourceCache, nil
		}
		logging.Ctx(ctx).Warn().Str("key", key).Msg("Discarding undecodable cached rows")
	}

	gen := s.generation.Load()
	v, err := s.shared(ctx, flightKey(key, gen), func(ctx context.Context) (any, error) {
		out, err := s.breaker.execute("query_records", func() (any, error) {
			return s.store.QueryRecords(ctx, fs)
		})
		if err != nil {
			return nil, err
		}
		records := out.([]models.Record)
		s.storeInCache(ctx, s.rows, key, records, s.rowTTL, gen)
		return records, nil
	})
	if err != nil {
		return nil, "", err
	}
	return v.([]models.Record), SourceStore, nil
}

func (s *Service) cachedFacets(ctx context.Context) (models.FacetTable, error) {
	if raw, ok := s.facets.Get(ctx, facetsKey); ok {
		var facets models.FacetTable
		if err := json.Unmarshal(raw, &facets); err == nil {
			return facets, nil
		}
		logging.Ctx(ctx).Warn().Msg("Discarding undecodable cached facets")
	}

	gen := s.generation.Load()
	v, err := s.shared(ctx, flightKey(facetsKey, gen), func(ctx context.Context) (any, error) {
		out, err := s.breaker.execute("facets", func() (any, error) {
			return s.store.Facets(ctx)
		})
		if err != nil {
			return nil, err
		}
		facets := out.(models.FacetTable)
		s.storeInCache(ctx, s.facets, facetsKey, facets, s.facetTTL, gen)
		return facets, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(models.FacetTable), nil
}

// storeInCache writes value under key unless the caches were invalidated
// since gen was read.
func (s *Service) storeInCache(ctx context.Context, c cache.Cacher, key string, value any, ttl time.Duration, gen uint64) {
	payload, err := json.Marshal(value)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("Failed to encode cache value")
		return
	}
	if s.generation.Load() != gen {
		return
	}
	c.Set(ctx, key, payload, ttl)
	if s.generation.Load() != gen {
		c.Delete(ctx, key)
	}
}

// shared runs fn once for all concurrent callers of key. fn ignores caller
// cancellation and is bounded by the store query timeout. Each caller stops
// waiting when its own ctx is done.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func flightKey(key string, gen uint64) string {
	return fmt.Sprintf("%s@%d", key, gen)
}
