// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/insightboard/internal/config"
	"github.com/tomtom215/insightboard/internal/logging"
)

type contextKey string

// ClaimsContextKey holds the authenticated *Claims.
const ClaimsContextKey contextKey = "claims"

// Authentication failures.
var (
	ErrNoCredentials      = errors.New("no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrExpiredCredentials = errors.New("credentials expired")
	ErrForbidden          = errors.New("role may not ingest")
)

// ErrorResponder writes an error response.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware guards write endpoints.
type Middleware struct {
	mode    string
	jwt     *JWTManager
	basic   *BasicAuthManager
	respond ErrorResponder
}

// NewMiddleware builds the guard for cfg.IngestAuth. respond writes the
// 401/403 responses.
func NewMiddleware(cfg config.SecurityConfig, respond ErrorResponder) (*Middleware, error) {
	m := &Middleware{mode: cfg.IngestAuth, respond: respond}
	if m.respond == nil {
		m.respond = plainError
	}

	switch cfg.IngestAuth {
	case "", config.IngestAuthNone:
		m.mode = config.IngestAuthNone
	case config.IngestAuthJWT:
		manager, err := NewJWTManager(cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		m.jwt = manager
	case config.IngestAuthBasic:
		manager, err := NewBasicAuthManager(cfg.BasicUsername, cfg.BasicPassword)
		if err != nil {
			return nil, fmt.Errorf("basic auth: %w", err)
		}
		m.basic = manager
	default:
		return nil, fmt.Errorf("unknown ingest auth mode %q", cfg.IngestAuth)
	}
	return m, nil
}

// Mode returns the active mode.
func (m *Middleware) Mode() string {
	return m.mode
}

// RequireWriter admits requests whose credentials carry an ingest role.
func (m *Middleware) RequireWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.mode == config.IngestAuthNone {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.authenticate(r)
		if err == nil && !claims.CanIngest() {
			err = ErrForbidden
		}
		if err != nil {
			m.reject(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}

	if m.mode == config.IngestAuthBasic {
		return m.basic.Authenticate(r)
	}

	token := bearerToken(header)
	if token == "" {
		return nil, ErrNoCredentials
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredCredentials
		}
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("mode", m.mode).Msg("Ingest request rejected")

	if errors.Is(err, ErrForbidden) {
		m.respond(w, r, http.StatusForbidden, "FORBIDDEN", "Insufficient role for ingest")
		return
	}
	if m.mode == config.IngestAuthBasic {
		w.Header().Set("WWW-Authenticate", m.basic.Challenge())
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="insightboard"`)
	}
	m.respond(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

func plainError(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
	http.Error(w, message, status)
}
