// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/models"
)

// Facets computes the distinct non-empty values of all seven facet columns
// in one round trip.
func (db *DB) Facets(ctx context.Context) (ft models.FacetTable, err error) {
	const op = "select_facets"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query.SelectFacets())
	if err != nil {
		return nil, classify(op, err)
	}
	defer closeQuietly(rows)

	ft = models.NewFacetTable()
	for rows.Next() {
		var column, value string
		if err := rows.Scan(&column, &value); err != nil {
			return nil, classify(op, err)
		}
		if err := ft.AddValue(column, value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	// Database collation may differ from byte order; sort in Go.
	return ft.Finalize(), nil
}
