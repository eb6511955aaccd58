// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/insightboard/internal/api"
	"github.com/tomtom215/insightboard/internal/cache"
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/database"
	"github.com/tomtom215/insightboard/internal/events"
	"github.com/tomtom215/insightboard/internal/fallback"
	"github.com/tomtom215/insightboard/internal/insights"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
	"github.com/tomtom215/insightboard/internal/supervisor"
	"github.com/tomtom215/insightboard/internal/supervisor/services"
	ws "github.com/tomtom215/insightboard/internal/websocket"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// serve wires the components and blocks until ctx is canceled.
//
// Startup order:
//
//  1. Store pool, optional schema creation and seeding
//  2. Caches and the fallback dataset
//  3. Embedded NATS (if configured) and the event bus
//  4. Insights service, WebSocket hub, HTTP router
//  5. Supervisor tree
//
//nolint:gocyclo // sequential setup steps
func serve(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("cache_backend", cfg.Cache.Backend).
		Str("events_backend", cfg.Events.Backend).
		Msg("Starting Insightboard")

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeLogged("database", db.Close)

	fb := fallback.New(cfg.Fallback.Paths)
	metrics.FallbackRecords.Set(float64(fb.Len()))
	logging.Info().Str("file", fb.Source()).Int("records", fb.Len()).Msg("Fallback dataset loaded")

	prepareStore(ctx, db, cfg.Database, cfg.Fallback.Paths)

	caches, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeLogged("cache", caches.Close)

	var natsServer *events.EmbeddedServer
	eventsCfg := cfg.Events
	if eventsCfg.Backend == config.EventsNATS && eventsCfg.NATSEmbedded {
		natsServer, err = events.NewEmbeddedServer(eventsCfg.NATSURL)
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		eventsCfg.NATSURL = natsServer.ClientURL()
		logging.Info().Str("url", eventsCfg.NATSURL).Msg("Embedded NATS server started")
	}

	// Once the tree runs, EmbeddedNATSService owns the server's shutdown.
	treeStarted := false
	defer func() {
		if natsServer != nil && !treeStarted {
			shutdownNATS(natsServer)
		}
	}()

	bus, err := events.Open(eventsCfg, nil)
	if err != nil {
		return err
	}
	defer closeLogged("event bus", bus.Close)

	svc := insights.New(db, caches.Rows, caches.Facets, fb, cfg.Cache)
	hub := ws.NewHub()
	svc.SetPublisher(bus)
	svc.SetNotifier(hub)

	handler := api.NewHandler(svc, hub, cfg)
	router, err := api.NewRouter(handler, cfg)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:              addr,
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	components := supervisor.Components{
		HTTP:   services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout),
		Hub:    services.NewWebSocketHubService(hub),
		Events: services.NewEventListenerService(bus, svc.HandlePeerEvent),
	}
	if natsServer != nil {
		components.NATS = services.NewEmbeddedNATSService(natsServer, cfg.Server.ShutdownTimeout)
	}
	for _, m := range caches.Sweepers {
		components.Janitors = append(components.Janitors, services.NewCacheJanitorService(m, cfg.Cache.JanitorInterval))
	}
	tree.Mount(components)

	// Prime facets in the background; the first dashboard load is the
	// expensive one.
	go svc.Warmup(ctx)

	logging.Info().Str("addr", addr).Str("ingest_auth", cfg.Security.IngestAuth).Msg("Supervisor tree starting")
	treeStarted = true
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, s := range report {
			logging.Warn().Str("service", s.Name).Msg("Service did not stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("Insightboard stopped")
	return nil
}

// prepareStore applies AutoMigrate and SeedOnStart. An unreachable store is
// logged only; reads fall back until it comes up.
func prepareStore(ctx context.Context, db *database.DB, cfg config.DatabaseConfig, fallbackPaths []string) {
	if cfg.AutoMigrate {
		if err := db.CreateSchema(ctx); err != nil {
			logging.Warn().Err(err).Msg("Schema creation skipped")
			return
		}
	}
	if !cfg.SeedOnStart {
		return
	}
	path, err := fallback.FindFile(fallbackPaths)
	if err != nil {
		logging.Warn().Err(err).Msg("Seed on start skipped")
		return
	}
	records, err := fallback.LoadFile(path)
	if err != nil {
		logging.Warn().Err(err).Msg("Seed on start skipped")
		return
	}
	if _, err := db.Seed(ctx, records); err != nil {
		logging.Warn().Err(err).Str("file", path).Msg("Seed on start failed")
	}
}

func shutdownNATS(s *events.EmbeddedServer) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS shutdown failed")
	}
}

func closeLogged(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Warn().Err(err).Str("component", name).Msg("Close failed")
	}
}
