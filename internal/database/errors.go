// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Reasons carried by StoreUnavailableError.
const (
	ReasonConnection   = "connection"
	ReasonTimeout      = "timeout"
	ReasonTableMissing = "table_missing"
	ReasonBreakerOpen  = "breaker_open"
)

// StoreUnavailableError means the store could not serve the operation at all.
// Reads fall back; writes surface it as 503.
type StoreUnavailableError struct {
	Op     string
	Reason string
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("store unavailable during %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("store unavailable during %s: %s: %v", e.Op, e.Reason, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IngestError means a batch insert failed after the store was reached. The
// transaction was rolled back and no row was written.
type IngestError struct {
	Rows int
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("insert of %d rows failed: %v", e.Rows, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// IsStoreUnavailable reports whether err is or wraps a StoreUnavailableError.
func IsStoreUnavailable(err error) bool {
	var target *StoreUnavailableError
	return errors.As(err, &target)
}

// Postgres SQLSTATE codes that mean the store cannot serve.
const (
	sqlStateUndefinedTable     = "42P01"
	sqlStateTooManyConnections = "53300"
	sqlStateAdminShutdown      = "57P01"
	sqlStateCrashShutdown      = "57P02"
	sqlStateCannotConnectNow   = "57P03"
)

// classify wraps err as a StoreUnavailableError when it means the store is
// unreachable, timed out, or the table is missing. Other errors are returned
// wrapped with op.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsStoreUnavailable(err) {
		return err
	}
	if reason, ok := unavailableReason(err); ok {
		return &StoreUnavailableError{Op: op, Reason: reason, Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unavailableReason(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == sqlStateUndefinedTable:
			return ReasonTableMissing, true
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == sqlStateTooManyConnections,
			pgErr.Code == sqlStateAdminShutdown,
			pgErr.Code == sqlStateCrashShutdown,
			pgErr.Code == sqlStateCannotConnectNow:
			return ReasonConnection, true
		}
		return "", false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return ReasonConnection, true
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return ReasonTimeout, true
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return ReasonConnection, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout, true
		}
		return ReasonConnection, true
	}

	msg := err.Error()
	switch {
	case isMissingTableMessage(msg):
		return ReasonTableMissing, true
	case isConnectionMessage(msg):
		return ReasonConnection, true
	}
	return "", false
}

// isMissingTableMessage matches DuckDB's catalog error for an absent table,
// e.g. "Catalog Error: Table with name insights does not exist!".
func isMissingTableMessage(msg string) bool {
	return strings.Contains(msg, "Catalog Error") && strings.Contains(msg, "does not exist")
}

func isConnectionMessage(msg string) bool {
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "bad connection") ||
		strings.Contains(msg, "database is closed")
}

// errorType is the metrics label for err.
func errorType(err error) string {
	if err == nil {
		return ""
	}
	var unavailable *StoreUnavailableError
	if errors.As(err, &unavailable) {
		return unavailable.Reason
	}
	var ingestErr *IngestError
	if errors.As(err, &ingestErr) {
		return "ingest"
	}
	return "query"
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use this for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
