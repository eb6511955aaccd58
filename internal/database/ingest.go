// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/models"
)

// InsertBatch writes records in one transaction through a prepared insert.
// Either every row is committed or none is.
//
// A store that cannot be reached, or a missing table, is reported as a
// StoreUnavailableError. Any other failure rolls back and is reported as an
// IngestError.
func (db *DB) InsertBatch(ctx context.Context, records []models.Record) (n int, err error) {
	const op = "insert_batch"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	if len(records) == 0 {
		return 0, nil
	}

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	err = db.inTx(ctx, op, func(tx *sql.Tx) error {
		return insertRecords(ctx, tx, db.dialect, records)
	})
	if err != nil {
		if IsStoreUnavailable(err) {
			return 0, err
		}
		logging.Ctx(ctx).Error().Err(err).Int("rows", len(records)).Msg("Batch insert rolled back")
		return 0, &IngestError{Rows: len(records), Err: err}
	}
	return len(records), nil
}

// inTx runs fn in a transaction. The transaction is rolled back on every
// path that does not commit.
func (db *DB) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logging.Warn().Err(rbErr).Str("op", op).Msg("Rollback failed")
		}
	}()

	if err := fn(tx); err != nil {
		return classify(op, err)
	}
	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	committed = true
	return nil
}

// insertRecords runs the prepared insert for each record on tx.
func insertRecords(ctx context.Context, tx *sql.Tx, dialect query.Dialect, records []models.Record) error {
	stmt, err := tx.PrepareContext(ctx, query.Insert(dialect))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range records {
		if _, err := stmt.ExecContext(ctx, records[i].InsertValues()...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return nil
}
