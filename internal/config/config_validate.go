// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateEvents(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL != "" {
			if err := validatePostgresURL(c.Database.URL); err != nil {
				return fmt.Errorf("DATABASE_URL is invalid: %w", err)
			}
		} else if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required when DATABASE_URL is not set")
		}
	case DriverDuckDB:
	default:
		return fmt.Errorf("DB_DRIVER must be one of: postgres, duckdb")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 || c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}
	return nil
}

// Cache TTL bounds.
const (
	minCacheTTL = 100 * time.Millisecond
	maxCacheTTL = 24 * time.Hour
)

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case CacheMemory, CacheBadger:
	case CacheRedis:
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of: memory, redis, badger")
	}

	if c.Cache.RowTTL < minCacheTTL || c.Cache.RowTTL > maxCacheTTL {
		return fmt.Errorf("CACHE_ROW_TTL must be between %v and %v", minCacheTTL, maxCacheTTL)
	}
	if c.Cache.FacetTTL != 0 && (c.Cache.FacetTTL < minCacheTTL || c.Cache.FacetTTL > maxCacheTTL) {
		return fmt.Errorf("CACHE_FACET_TTL must be 0 or between %v and %v", minCacheTTL, maxCacheTTL)
	}
	if c.Cache.JanitorInterval < 0 {
		return fmt.Errorf("CACHE_JANITOR_INTERVAL must not be negative")
	}
	return nil
}

func (c *Config) validateEvents() error {
	switch c.Events.Backend {
	case EventsGoChannel:
	case EventsNATS:
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("EVENTS_BACKEND must be one of: gochannel, nats")
	}
	if c.Events.Topic == "" {
		return fmt.Errorf("EVENTS_TOPIC must not be empty")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	switch c.Security.IngestAuth {
	case IngestAuthNone:
	case IngestAuthJWT:
		if err := c.validateJWTSecret(); err != nil {
			return err
		}
	case IngestAuthBasic:
		if err := c.validateBasicCredentials(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("INGEST_AUTH must be one of: none, jwt, basic")
	}

	if c.hasWildcardCORS() && c.Security.IngestAuth != IngestAuthNone && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGINS=* is not allowed in production with ingest authentication enabled")
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when INGEST_AUTH is jwt")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate one with: openssl rand -base64 32")
	}
	return nil
}

func (c *Config) validateBasicCredentials() error {
	if c.Security.BasicUsername == "" {
		return fmt.Errorf("BASIC_AUTH_USERNAME is required when INGEST_AUTH is basic")
	}
	if len(c.Security.BasicPassword) < 12 {
		return fmt.Errorf("BASIC_AUTH_PASSWORD must be at least 12 characters")
	}
	if containsPlaceholder(c.Security.BasicPassword) {
		return fmt.Errorf("BASIC_AUTH_PASSWORD contains a placeholder value")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

func (c *Config) validateLogging() error {
	if c.Logging.Level != "" && !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
