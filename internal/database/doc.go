// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package database is the store for the insights table.
//
// # Overview
//
// DB wraps a database/sql pool on one of two drivers:
//   - PostgreSQL through jackc/pgx/v5/stdlib (driver "pgx"), the primary store
//   - DuckDB through duckdb/duckdb-go/v2 (driver "duckdb"), the embedded store
//     and the backend of the unit tests
//
// SQL text is produced by the query subpackage for the active dialect.
//
// # Files
//
//   - database.go: Open, pool configuration, Ping, Close
//   - errors.go: StoreUnavailableError, IngestError and driver error classification
//   - insights.go: filtered row queries
//   - facets.go: the single-statement facet aggregation
//   - ingest.go: atomic batch insert
//   - schema.go: CreateSchema, ResetSchema, Seed, Count
//
// # Error Contract
//
// Every exported operation that touches the store returns either nil, a
// *StoreUnavailableError (the store cannot serve: connection failure,
// timeout, missing table), an *IngestError (a batch insert failed after the
// store was reached), or a plain wrapped error. Callers branch with
// errors.As; read paths fall back on StoreUnavailableError.
//
// # Usage
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	rows, err := db.QueryRecords(ctx, models.NewFilterSet().With("region", "Asia"))
//	var unavailable *database.StoreUnavailableError
//	if errors.As(err, &unavailable) {
//	    // serve fallback
//	}
package database
