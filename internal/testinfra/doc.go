// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package testinfra provides container helpers for integration tests.
//
// Everything here is behind the integration build tag and uses
// testcontainers-go to start real PostgreSQL and Redis instances:
//
//	func TestStoreAgainstPostgres(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    store, err := database.Open(ctx, config.DatabaseConfig{
//	        Driver: config.DriverPostgres,
//	        URL:    pg.URL,
//	    })
//	    // ...
//	}
//
// Tests are skipped when Docker is unavailable. Run them with:
//
//	go test -tags integration ./...
package testinfra
