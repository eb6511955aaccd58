// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/insightboard/internal/logging"
)

// serveWithID runs RequestID around a handler that captures the IDs it sees.
func serveWithID(t *testing.T, header string) (resp, ctxID, logID, correlation string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = GetRequestID(r.Context())
		logID = logging.RequestIDFromContext(r.Context())
		correlation = logging.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(RequestIDHeader, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get(RequestIDHeader), ctxID, logID, correlation
}

func TestRequestID_GeneratesNewID(t *testing.T) {
	resp, ctxID, logID, correlation := serveWithID(t, "")

	if _, err := uuid.Parse(resp); err != nil {
		t.Errorf("response X-Request-ID %q is not a UUID: %v", resp, err)
	}
	if ctxID != resp || logID != resp {
		t.Errorf("context IDs %q/%q do not match response header %q", ctxID, logID, resp)
	}
	if correlation == "" {
		t.Error("expected a correlation ID in the logging context")
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	const upstream = "existing-request-id-12345"
	resp, ctxID, logID, _ := serveWithID(t, upstream)

	if resp != upstream || ctxID != upstream || logID != upstream {
		t.Errorf("got header %q ctx %q log %q, want %q everywhere", resp, ctxID, logID, upstream)
	}
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	long := strings.Repeat("x", maxRequestIDLength+1)
	resp, _, _, _ := serveWithID(t, long)

	if resp == long {
		t.Error("oversized upstream ID should have been replaced")
	}
	if _, err := uuid.Parse(resp); err != nil {
		t.Errorf("replacement %q is not a UUID", resp)
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp, _, _, _ := serveWithID(t, "")
		if seen[resp] {
			t.Fatalf("duplicate request ID %q", resp)
		}
		seen[resp] = true
	}
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"missing", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), RequestIDKey, 42), ""},
		{"present", context.WithValue(context.Background(), RequestIDKey, "abc"), "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetRequestID(tt.ctx); got != tt.want {
				t.Errorf("GetRequestID() = %q, want %q", got, tt.want)
			}
		})
	}
}
