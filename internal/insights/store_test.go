// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package insights

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/insightboard/internal/cache"
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database"
	"github.com/tomtom215/insightboard/internal/fallback"
	"github.com/tomtom215/insightboard/internal/models"
)

// setupDuckDBService returns a service over an in-memory DuckDB store with
// the schema created and no rows.
func setupDuckDBService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver:       config.DriverDuckDB,
		DuckDBPath:   ":memory:",
		MaxOpenConns: 4,
		QueryTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.CreateSchema(ctx); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}

	return New(db,
		cache.NewMemory("insights_duckdb_rows", 0),
		cache.NewMemory("insights_duckdb_facets", 0),
		fallback.New([]string{filepath.Join(t.TempDir(), "missing.json")}),
		config.CacheConfig{RowTTL: time.Minute},
	)
}

func TestIngestThenFilterOverDuckDB(t *testing.T) {
	svc := setupDuckDBService(t)
	ctx := context.Background()

	fs, err := models.ParseFilterSet(url.Values{"topics": {"X"}})
	if err != nil {
		t.Fatalf("ParseFilterSet: %v", err)
	}

	// Prime both caches with the empty answer.
	before, err := svc.Data(ctx, fs)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if before.Source != SourceStore || len(before.Records) != 0 {
		t.Fatalf("before ingest: %d records from %q, want 0 from store", len(before.Records), before.Source)
	}
	if cached, _ := svc.Data(ctx, fs); cached.Source != SourceCache {
		t.Fatalf("second read source = %q, want cache", cached.Source)
	}

	batch, err := models.DecodeBatch([]byte(`[{"topic":"X"}]`))
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	n, err := svc.Ingest(ctx, batch)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Fatalf("inserted = %d, want 1", n)
	}

	after, err := svc.Data(ctx, fs)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if after.Source != SourceStore {
		t.Errorf("source after ingest = %q, want store", after.Source)
	}
	if len(after.Records) != 1 {
		t.Fatalf("records after ingest = %d, want 1", len(after.Records))
	}
	if r := after.Records[0]; r.Topic == nil || *r.Topic != "X" || r.ID == 0 {
		t.Errorf("record = %+v, want topic X with an assigned id", r)
	}
	if got := after.Facets["topics"]; len(got) != 1 || got[0] != "X" {
		t.Errorf("topics facet = %v, want [X]", got)
	}

	other, err := svc.Insights(ctx, models.NewFilterSet().With("topic", "Y"))
	if err != nil {
		t.Fatalf("Insights: %v", err)
	}
	if len(other.Records) != 0 {
		t.Errorf("topic Y matched %d records, want 0", len(other.Records))
	}
}
