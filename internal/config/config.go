// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

// Package config loads service configuration from defaults, an optional YAML
// file and environment variables (see LoadWithKoanf).
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverDuckDB   = "duckdb"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// Event bus backends.
const (
	EventsGoChannel = "gochannel"
	EventsNATS      = "nats"
)

// Ingest protection modes.
const (
	IngestAuthNone  = "none"
	IngestAuthJWT   = "jwt"
	IngestAuthBasic = "basic"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Fallback FallbackConfig `koanf:"fallback"`
	Events   EventsConfig   `koanf:"events"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// Addr returns host:port for the listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig selects and tunes the backing store.
type DatabaseConfig struct {
	Driver string `koanf:"driver"`

	// URL is a full Postgres connection string. When empty, one is built
	// from the discrete Name/User/Password/Host/Port fields.
	URL      string `koanf:"url"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	SSLMode  string `koanf:"sslmode"`

	// DuckDBPath is the embedded database file. ":memory:" or "" opens an
	// in-memory database.
	DuckDBPath string `koanf:"duckdb_path"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`

	// AutoMigrate creates the insights table at startup when missing.
	AutoMigrate bool `koanf:"auto_migrate"`
	// SeedOnStart replaces the table contents with the fallback dataset at startup.
	SeedOnStart bool `koanf:"seed_on_start"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == DriverDuckDB {
		if d.DuckDBPath == ":memory:" {
			return ""
		}
		return d.DuckDBPath
	}
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", d.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	Backend string        `koanf:"backend"`
	RowTTL  time.Duration `koanf:"row_ttl"`
	// FacetTTL of zero means ten times RowTTL.
	FacetTTL        time.Duration `koanf:"facet_ttl"`
	JanitorInterval time.Duration `koanf:"janitor_interval"`

	Redis RedisConfig `koanf:"redis"`

	// BadgerPath is the badger directory. Empty runs badger in memory.
	BadgerPath string `koanf:"badger_path"`
}

// EffectiveFacetTTL resolves the facet TTL.
func (c CacheConfig) EffectiveFacetTTL() time.Duration {
	if c.FacetTTL > 0 {
		return c.FacetTTL
	}
	return 10 * c.RowTTL
}

// RedisConfig holds the redis cache connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// FallbackConfig locates the bundled dataset file.
type FallbackConfig struct {
	// Paths are tried in order; the first existing file is used.
	Paths []string `koanf:"paths"`
}

// EventsConfig holds the dataset change bus settings.
type EventsConfig struct {
	Backend string `koanf:"backend"`
	NATSURL string `koanf:"nats_url"`
	Topic   string `koanf:"topic"`

	// NATSEmbedded starts an in-process NATS server listening on the host
	// and port of NATSURL. Only meaningful with the nats backend.
	NATSEmbedded bool `koanf:"nats_embedded"`
}

// SecurityConfig holds CORS, rate limiting and ingest protection.
type SecurityConfig struct {
	CORSOrigins       []string `koanf:"cors_origins"`
	RateLimitDisabled bool     `koanf:"rate_limit_disabled"`

	IngestAuth    string `koanf:"ingest_auth"`
	JWTSecret     string `koanf:"jwt_secret"`
	BasicUsername string `koanf:"basic_username"`
	BasicPassword string `koanf:"basic_password"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
