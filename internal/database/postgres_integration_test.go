// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

//go:build integration

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/models"
	"github.com/tomtom215/insightboard/internal/testinfra"
)

func TestPostgresStore(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	pg, err := testinfra.NewPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	db, err := Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		URL:          pg.URL,
		MaxOpenConns: 4,
		QueryTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Dialect() != query.DialectPostgres {
		t.Fatalf("dialect = %s, want postgres", db.Dialect())
	}

	t.Run("missing table is unavailable", func(t *testing.T) {
		_, err := db.QueryRecords(ctx, models.NewFilterSet())
		var unavailable *StoreUnavailableError
		if !errors.As(err, &unavailable) || unavailable.Reason != ReasonTableMissing {
			t.Fatalf("got %v, want table_missing", err)
		}
	})

	if err := db.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if _, err := db.Seed(ctx, fixtureRecords()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	t.Run("any binds a text array", func(t *testing.T) {
		got, err := db.QueryRecords(ctx, models.NewFilterSet().With("topic", "gas", "oil"))
		if err != nil {
			t.Fatalf("QueryRecords: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("got %d rows, want 3", len(got))
		}
	})

	t.Run("any binds an integer array", func(t *testing.T) {
		got, err := db.QueryRecords(ctx, models.FilterSet{Intensities: []int64{2, 9}})
		if err != nil {
			t.Fatalf("QueryRecords: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d rows, want 2", len(got))
		}
	})

	t.Run("facets", func(t *testing.T) {
		ft, err := db.Facets(ctx)
		if err != nil {
			t.Fatalf("Facets: %v", err)
		}
		if len(ft["topics"]) != 3 {
			t.Errorf("topics = %v", ft["topics"])
		}
	})

	t.Run("ingest restarts after seed", func(t *testing.T) {
		n, err := db.InsertBatch(ctx, []models.Record{{Topic: strPtr("ai")}})
		if err != nil || n != 1 {
			t.Fatalf("InsertBatch = %d, %v", n, err)
		}
		total, err := db.Count(ctx)
		if err != nil {
			t.Fatalf("Count: %v", err)
		}
		if total != int64(len(fixtureRecords())+1) {
			t.Errorf("Count = %d", total)
		}
	})
}
