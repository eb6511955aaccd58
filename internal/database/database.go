// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database/query"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
)

// DB wraps the SQL connection pool for the insights table.
type DB struct {
	conn    *sql.DB
	cfg     config.DatabaseConfig
	dialect query.Dialect
}

// Open opens the pool for cfg.Driver and verifies it with a ping.
//
// An unreachable server is not an error here: the pool is returned and
// operations report StoreUnavailableError until the server comes up, so the
// service can start and serve fallback data.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	driverName, dialect, err := driverFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN()
	if dialect == query.DialectDuckDB && dsn != "" {
		// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg, dialect: dialect}
	db.configureConnectionPool()

	if err := db.Ping(ctx); err != nil {
		if !IsStoreUnavailable(err) {
			closeQuietly(conn)
			return nil, err
		}
		logging.Warn().Err(err).Str("driver", dialect.String()).Msg("Store unreachable at startup, reads will use fallback")
	}

	logging.Info().
		Str("driver", dialect.String()).
		Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Database pool opened")
	return db, nil
}

func driverFor(name string) (string, query.Dialect, error) {
	switch name {
	case "", config.DriverPostgres:
		return "pgx", query.DialectPostgres, nil
	case config.DriverDuckDB:
		return "duckdb", query.DialectDuckDB, nil
	}
	return "", 0, fmt.Errorf("unsupported database driver %q", name)
}

// configureConnectionPool sets connection pool parameters from config.
func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := db.cfg.MaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = maxOpen / 2
	}
	lifetime := db.cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(maxIdle)
	db.conn.SetConnMaxLifetime(lifetime)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Dialect returns the SQL dialect of the open driver.
func (db *DB) Dialect() query.Dialect {
	return db.dialect
}

// Conn returns the underlying SQL pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks store reachability. Any failure is a StoreUnavailableError.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := db.conn.PingContext(ctx)
	if err != nil {
		err = classify("ping", err)
		if !IsStoreUnavailable(err) {
			err = &StoreUnavailableError{Op: "ping", Reason: ReasonConnection, Err: err}
		}
	}
	db.record("ping", start, err)
	return err
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// withTimeout applies the configured query timeout unless ctx already has an
// earlier deadline.
func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, db.cfg.QueryTimeout)
}

func (db *DB) record(op string, start time.Time, err error) {
	metrics.RecordDBQuery(op, db.dialect.String(), time.Since(start), errorType(err))
	stats := db.conn.Stats()
	metrics.DBOpenConnections.Set(float64(stats.OpenConnections))
}
