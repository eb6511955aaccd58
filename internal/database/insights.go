// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"time"

	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/models"
)

// QueryRecords returns up to models.MaxRows records matching fs, ordered by id.
func (db *DB) QueryRecords(ctx context.Context, fs models.FilterSet) (records []models.Record, err error) {
	const op = "select_rows"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	sqlText, args := query.SelectRows(fs, db.dialect)
	rows, err := db.conn.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer closeQuietly(rows)

	records = make([]models.Record, 0, 64)
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(r.ScanDest()...); err != nil {
			return nil, classify(op, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return records, nil
}
