// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/insightboard/internal/auth"
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", ""))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// duckDBEnv points the CLI at a fresh DuckDB file.
func duckDBEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "insights.duckdb")
	t.Setenv("DB_DRIVER", "duckdb")
	t.Setenv("DUCKDB_PATH", path)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "insightboard "+version) {
		t.Errorf("unexpected output %q", out)
	}
}

func TestInitDBAndSeed(t *testing.T) {
	path := duckDBEnv(t)

	if _, err := runCLI(t, "init-db"); err != nil {
		t.Fatalf("init-db: %v", err)
	}

	out, err := runCLI(t, "seed", "--file", filepath.Join("testdata", "insights.json"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !strings.Contains(out, "Seeded 6 records") {
		t.Errorf("unexpected seed output %q", out)
	}

	// Seeding again replaces rather than appends.
	if _, err := runCLI(t, "seed", "--file", filepath.Join("testdata", "insights.json")); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n := countRows(t, path); n != 6 {
		t.Errorf("expected 6 rows after reseed, got %d", n)
	}

	if _, err := runCLI(t, "init-db", "--reset"); err != nil {
		t.Fatalf("init-db --reset: %v", err)
	}
	if n := countRows(t, path); n != 0 {
		t.Errorf("expected empty table after reset, got %d rows", n)
	}
}

func TestSeedMissingFile(t *testing.T) {
	duckDBEnv(t)
	if _, err := runCLI(t, "seed", "--file", filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected an error for a missing dataset file")
	}
}

func TestTokenCommand(t *testing.T) {
	duckDBEnv(t)
	secret := strings.Repeat("k", 40)
	t.Setenv("JWT_SECRET", secret)

	out, err := runCLI(t, "token", "--user", "loader", "--role", auth.RoleWriter)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	manager, err := auth.NewJWTManager(secret)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := manager.ValidateToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Username != "loader" || !claims.CanIngest() {
		t.Errorf("unexpected claims %+v", claims)
	}

	if _, err := runCLI(t, "token", "--role", "reader"); err == nil {
		t.Error("expected an error for a role that cannot ingest")
	}
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	duckDBEnv(t)
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := runCLI(t, "init-db"); err == nil {
		t.Fatal("expected configuration error")
	}
}

func countRows(t *testing.T, path string) int64 {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver:       config.DriverDuckDB,
		DuckDBPath:   path,
		MaxOpenConns: 1,
		QueryTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	n, err := db.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
