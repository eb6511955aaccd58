// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/testinfra"
)

func TestRedisCache(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	rc, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, rc)

	caches, err := Open(ctx, config.CacheConfig{
		Backend: config.CacheRedis,
		Redis:   config.RedisConfig{Addr: rc.Addr, Prefix: "it:"},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer caches.Close()

	t.Run("set and get", func(t *testing.T) {
		caches.Rows.Set(ctx, "k", []byte(`[{"id":1}]`), time.Minute)
		got, ok := caches.Rows.Get(ctx, "k")
		if !ok || string(got) != `[{"id":1}]` {
			t.Errorf("Get = %q, %v", got, ok)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		caches.Rows.Set(ctx, "short", []byte("v"), 200*time.Millisecond)
		time.Sleep(400 * time.Millisecond)
		if _, ok := caches.Rows.Get(ctx, "short"); ok {
			t.Error("entry should have expired")
		}
	})

	t.Run("clear is namespaced", func(t *testing.T) {
		for i := 0; i < 1200; i++ {
			caches.Rows.Set(ctx, fmt.Sprintf("r%d", i), []byte("v"), time.Minute)
		}
		caches.Facets.Set(ctx, "f", []byte("v"), time.Minute)

		if err := caches.Rows.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, ok := caches.Rows.Get(ctx, "r0"); ok {
			t.Error("rows entry survived Clear")
		}
		if _, ok := caches.Facets.Get(ctx, "f"); !ok {
			t.Error("facets entry should survive clearing rows")
		}
	})
}
