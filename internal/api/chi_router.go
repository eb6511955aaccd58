// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/insightboard/internal/auth"
	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/middleware"
)

// Router wires the handlers to routes and middleware.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	auth          *auth.Middleware
}

// NewRouter builds the router for cfg. It fails when the ingest
// authentication settings are unusable.
func NewRouter(handler *Handler, cfg *config.Config) (*Router, error) {
	authMiddleware, err := auth.NewMiddleware(cfg.Security, authErrorResponder)
	if err != nil {
		return nil, fmt.Errorf("ingest auth: %w", err)
	}

	logging.Info().
		Str("ingest_auth", authMiddleware.Mode()).
		Bool("rate_limit_disabled", cfg.Security.RateLimitDisabled).
		Strs("cors_origins", cfg.Security.CORSOrigins).
		Msg("HTTP router configured")

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddlewareFromConfig(cfg.Security.CORSOrigins, cfg.Security.RateLimitDisabled),
		auth:          authMiddleware,
	}, nil
}

// SetupChi returns the fully wired HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(APISecurityHeaders())
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Health (never rate limited)
	// ========================
	r.Get("/health", router.handler.Health)
	r.Get("/health/live", router.handler.HealthLive)
	r.Get("/health/ready", router.handler.HealthReady)

	r.With(router.chiMiddleware.RateLimitWarmup()).Get("/warmup", router.handler.Warmup)

	// ========================
	// Insights API
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitRead())
			r.Use(middleware.Compression)
			r.Get("/data", router.handler.Data)
			r.Get("/insights", router.handler.Insights)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())
			r.Use(router.auth.RequireWriter)
			r.Post("/insert", router.handler.Insert)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}
