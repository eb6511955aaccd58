// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "PORT"},
		{name: "bad driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DB_DRIVER"},
		{
			name:    "bad database url",
			mutate:  func(c *Config) { c.Database.URL = "mysql://h/db" },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "idle above open",
			mutate:  func(c *Config) { c.Database.MaxIdleConns = 50 },
			wantErr: "DB_MAX_IDLE_CONNS",
		},
		{
			name:    "row ttl too small",
			mutate:  func(c *Config) { c.Cache.RowTTL = time.Millisecond },
			wantErr: "CACHE_ROW_TTL",
		},
		{
			name:    "redis without addr",
			mutate:  func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.Redis.Addr = "" },
			wantErr: "REDIS_ADDR",
		},
		{
			name:    "nats bad url",
			mutate:  func(c *Config) { c.Events.Backend = EventsNATS; c.Events.NATSURL = "http://x" },
			wantErr: "NATS_URL",
		},
		{
			name:    "jwt short secret",
			mutate:  func(c *Config) { c.Security.IngestAuth = IngestAuthJWT; c.Security.JWTSecret = "short" },
			wantErr: "JWT_SECRET",
		},
		{
			name: "jwt placeholder",
			mutate: func(c *Config) {
				c.Security.IngestAuth = IngestAuthJWT
				c.Security.JWTSecret = "CHANGEME-CHANGEME-CHANGEME-CHANGEME"
			},
			wantErr: "placeholder",
		},
		{
			name: "basic ok",
			mutate: func(c *Config) {
				c.Security.IngestAuth = IngestAuthBasic
				c.Security.BasicUsername = "loader"
				c.Security.BasicPassword = "correct-horse-battery"
			},
		},
		{
			name:    "basic missing user",
			mutate:  func(c *Config) { c.Security.IngestAuth = IngestAuthBasic },
			wantErr: "BASIC_AUTH_USERNAME",
		},
		{
			name: "wildcard cors in production with auth",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.CORSOrigins = []string{"*"}
				c.Security.IngestAuth = IngestAuthBasic
				c.Security.BasicUsername = "loader"
				c.Security.BasicPassword = "correct-horse-battery"
			},
			wantErr: "CORS_ORIGINS",
		},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
