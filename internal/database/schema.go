// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/models"
)

// sequenceName backs the DuckDB id column.
const sequenceName = models.TableName + "_id_seq"

// columnTypes maps each allow-listed column to its SQL type.
var columnTypes = map[string]string{
	"end_year":   "VARCHAR(255)",
	"intensity":  "INTEGER",
	"sector":     "VARCHAR(255)",
	"topic":      "VARCHAR(255)",
	"insight":    "TEXT",
	"url":        "TEXT",
	"region":     "VARCHAR(255)",
	"start_year": "VARCHAR(255)",
	"impact":     "VARCHAR(255)",
	"added":      "TIMESTAMP",
	"published":  "TIMESTAMP",
	"country":    "VARCHAR(255)",
	"relevance":  "INTEGER",
	"pestle":     "VARCHAR(255)",
	"source":     "VARCHAR(255)",
	"title":      "TEXT",
	"likelihood": "INTEGER",
}

// createStatements returns the idempotent DDL for dialect.
func createStatements(dialect query.Dialect) []string {
	defs := make([]string, 0, len(models.Columns)+1)
	var stmts []string

	if dialect == query.DialectDuckDB {
		stmts = append(stmts, fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1", sequenceName))
		defs = append(defs, fmt.Sprintf("id BIGINT PRIMARY KEY DEFAULT nextval('%s')", sequenceName))
	} else {
		defs = append(defs, "id SERIAL PRIMARY KEY")
	}
	for _, c := range models.Columns {
		defs = append(defs, c.Name+" "+columnTypes[c.Name])
	}

	stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		models.TableName, strings.Join(defs, ",\n\t")))
	return stmts
}

func dropStatements(dialect query.Dialect) []string {
	stmts := []string{fmt.Sprintf("DROP TABLE IF EXISTS %s", models.TableName)}
	if dialect == query.DialectDuckDB {
		stmts = append(stmts, fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", sequenceName))
	}
	return stmts
}

// CreateSchema creates the insights table if it does not exist.
func (db *DB) CreateSchema(ctx context.Context) (err error) {
	const op = "create_schema"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	err = db.inTx(ctx, op, func(tx *sql.Tx) error {
		return execAll(ctx, tx, createStatements(db.dialect))
	})
	if err == nil {
		logging.Info().Str("table", models.TableName).Msg("Schema ready")
	}
	return err
}

// ResetSchema drops and recreates the insights table. All rows are lost.
func (db *DB) ResetSchema(ctx context.Context) (err error) {
	const op = "reset_schema"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	stmts := append(dropStatements(db.dialect), createStatements(db.dialect)...)
	err = db.inTx(ctx, op, func(tx *sql.Tx) error {
		return execAll(ctx, tx, stmts)
	})
	if err == nil {
		logging.Warn().Str("table", models.TableName).Msg("Table dropped and recreated")
	}
	return err
}

// SeedResult reports a completed seed.
type SeedResult struct {
	Inserted int
	Total    int64
}

// seedChunk is the progress logging interval of Seed.
const seedChunk = 500

// Seed replaces the table contents with records in one transaction and
// restarts id numbering at 1.
func (db *DB) Seed(ctx context.Context, records []models.Record) (res SeedResult, err error) {
	const op = "seed"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	err = db.inTx(ctx, op, func(tx *sql.Tx) error {
		if err := truncate(ctx, tx, db.dialect); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, query.Insert(db.dialect))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer closeQuietly(stmt)

		for i := range records {
			if _, err := stmt.ExecContext(ctx, records[i].InsertValues()...); err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
			if (i+1)%seedChunk == 0 {
				logging.Debug().Int("rows", i+1).Int("of", len(records)).Msg("Seeding")
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	total, err := db.Count(ctx)
	if err != nil {
		return SeedResult{}, err
	}
	res = SeedResult{Inserted: len(records), Total: total}
	logging.Info().Int("inserted", res.Inserted).Int64("total", res.Total).Msg("Seed complete")
	return res, nil
}

// truncate empties the table and restarts the id sequence. DuckDB has no
// sequence restart, so the table and sequence are recreated instead.
func truncate(ctx context.Context, tx *sql.Tx, dialect query.Dialect) error {
	if dialect == query.DialectDuckDB {
		return execAll(ctx, tx, append(dropStatements(dialect), createStatements(dialect)...))
	}
	return execAll(ctx, tx, []string{fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", models.TableName)})
}

// Count returns the number of rows in the insights table.
func (db *DB) Count(ctx context.Context) (n int64, err error) {
	const op = "count"
	start := time.Now()
	defer func() { db.record(op, start, err) }()

	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+models.TableName)
	if err := row.Scan(&n); err != nil {
		return 0, classify(op, err)
	}
	return n, nil
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
