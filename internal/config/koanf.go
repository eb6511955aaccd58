// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/insightboard/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Name:            "dashboard_data",
			User:            "postgres",
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "prefer",
			DuckDBPath:      "insightboard.duckdb",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    10 * time.Second,
			AutoMigrate:     true,
			SeedOnStart:     false,
		},
		Cache: CacheConfig{
			Backend:         CacheMemory,
			RowTTL:          60 * time.Second,
			FacetTTL:        10 * time.Minute,
			JanitorInterval: time.Minute,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "insightboard:",
			},
		},
		Fallback: FallbackConfig{
			Paths: []string{"/app/data.json", "data.json"},
		},
		Events: EventsConfig{
			Backend: EventsGoChannel,
			NATSURL: "nats://127.0.0.1:4222",
			Topic:   "insightboard.dataset.changed",
		},
		Security: SecurityConfig{
			CORSOrigins: []string{"http://localhost:3000"},
			IngestAuth:  IngestAuthNone,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DATABASE_URL -> database.url, CACHE_ROW_TTL -> cache.row_ttl
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set by env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"fallback.paths",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// DB_* and DATABASE_URL keep the names the original deployment used.
var envMappings = map[string]string{
	"port":             "server.port",
	"http_port":        "server.port",
	"http_host":        "server.host",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	"db_driver":            "database.driver",
	"database_url":         "database.url",
	"db_name":              "database.name",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_sslmode":           "database.sslmode",
	"duckdb_path":          "database.duckdb_path",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",
	"db_query_timeout":     "database.query_timeout",
	"db_auto_migrate":      "database.auto_migrate",
	"db_seed_on_start":     "database.seed_on_start",

	"cache_backend":          "cache.backend",
	"cache_row_ttl":          "cache.row_ttl",
	"cache_facet_ttl":        "cache.facet_ttl",
	"cache_janitor_interval": "cache.janitor_interval",
	"redis_addr":             "cache.redis.addr",
	"redis_password":         "cache.redis.password",
	"redis_db":               "cache.redis.db",
	"redis_prefix":           "cache.redis.prefix",
	"badger_path":            "cache.badger_path",

	"fallback_path":  "fallback.paths",
	"fallback_paths": "fallback.paths",

	"events_backend": "events.backend",
	"nats_url":       "events.nats_url",
	"events_topic":   "events.topic",
	"nats_embedded":  "events.nats_embedded",

	"cors_origins":        "security.cors_origins",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"ingest_auth":         "security.ingest_auth",
	"jwt_secret":          "security.jwt_secret",
	"basic_auth_username": "security.basic_username",
	"basic_auth_password": "security.basic_password",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped keys so unrelated environment
// variables never reach the config.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
