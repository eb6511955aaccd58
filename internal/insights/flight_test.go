// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package insights

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/insightboard/internal/cache"
	"github.com/tomtom215/insightboard/internal/metrics"
	"github.com/tomtom215/insightboard/internal/models"
)

func TestCanceledCallerDoesNotFailSharedQuery(t *testing.T) {
	svc, store := setupService(t)
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	store.onQuery = func() { once.Do(func() { close(started) }) }
	store.block = release

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	defer cancelLeader()

	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Insights(leaderCtx, models.NewFilterSet())
		leaderErr <- err
	}()
	<-started

	type outcome struct {
		res Result
		err error
	}
	follower := make(chan outcome, 1)
	go func() {
		res, err := svc.Insights(context.Background(), models.NewFilterSet())
		follower <- outcome{res, err}
	}()
	time.Sleep(30 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("leader err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("canceled caller kept waiting for the shared query")
	}

	close(release)
	select {
	case out := <-follower:
		if out.err != nil {
			t.Fatalf("follower err = %v", out.err)
		}
		if out.res.Source != SourceStore || len(out.res.Records) != 3 {
			t.Errorf("follower got %d records from %q, want 3 from store", len(out.res.Records), out.res.Source)
		}
	case <-time.After(time.Second):
		t.Fatal("follower did not return")
	}

	if queries, _ := store.counts(); queries != 1 {
		t.Errorf("store queries = %d, want 1", queries)
	}
	if svc.BreakerState() != "closed" {
		t.Errorf("breaker state = %s, want closed", svc.BreakerState())
	}
}

func TestCallerDeadlineDoesNotCountAgainstStore(t *testing.T) {
	svc, store := setupService(t)
	release := make(chan struct{})
	store.block = release

	for i := 0; i < breakerTripAfter+1; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := svc.Insights(ctx, models.NewFilterSet().With("topic", "oil"))
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: err = %v, want context.DeadlineExceeded", i, err)
		}
	}
	close(release)

	if svc.BreakerOpen() {
		t.Error("impatient callers opened the breaker")
	}
}

func TestCacheLookupsCountedOnce(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	const name = "insights_test_rows"

	hits := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(name))
	misses := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(name))

	for i := 0; i < 2; i++ {
		if _, err := svc.Insights(ctx, models.NewFilterSet()); err != nil {
			t.Fatalf("Insights: %v", err)
		}
	}

	if got := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(name)) - hits; got != 1 {
		t.Errorf("hits delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(name)) - misses; got != 1 {
		t.Errorf("misses delta = %v, want 1", got)
	}
}

// racingCache runs beforeSet once, ahead of the first write it receives.
type racingCache struct {
	*cache.Memory
	beforeSet func()
}

func (r *racingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if hook := r.beforeSet; hook != nil {
		r.beforeSet = nil
		hook()
	}
	r.Memory.Set(ctx, key, value, ttl)
}

func TestInvalidationRacingCacheWriteIsUndone(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	rows := &racingCache{Memory: cache.NewMemory("insights_test_racing_rows", 0)}
	rows.beforeSet = func() { svc.InvalidateCaches(ctx, "ingest") }
	svc.rows = rows

	if _, err := svc.Insights(ctx, models.NewFilterSet()); err != nil {
		t.Fatalf("Insights: %v", err)
	}
	key := cache.GenerateKey(prefixInsights, models.NewFilterSet().Normalize())
	if _, ok := rows.Memory.Get(ctx, key); ok {
		t.Error("rows read before the invalidation are still cached")
	}
	if n := rows.Stats().TotalKeys; n != 0 {
		t.Errorf("row cache holds %d entries, want 0", n)
	}
}
