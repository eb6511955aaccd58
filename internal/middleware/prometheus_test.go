// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/insightboard/internal/metrics"
)

func newMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	r.Get("/limited", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	r.Get("/implicit", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	router := newMetricsRouter()
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "201")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/items/1", "/items/2", "/items/abc?x=1"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("GET %s: status %d, want 201", path, rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests under /items/{id} = %v, want 3", got)
	}
}

func TestPrometheusMetrics_DefaultsTo200(t *testing.T) {
	router := newMetricsRouter()
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/implicit", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/implicit", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("200 count delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_CountsRateLimitHits(t *testing.T) {
	router := newMetricsRouter()
	hits := metrics.APIRateLimitHits.WithLabelValues("/limited")
	before := testutil.ToFloat64(hits)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))

	if got := testutil.ToFloat64(hits) - before; got != 1 {
		t.Errorf("rate limit hits delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_UnmatchedRoute(t *testing.T) {
	handler := PrometheusMetrics(http.NotFoundHandler())
	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no/such/path", nil))

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("unmatched count delta = %v, want 1", got)
	}
}

func TestPrometheusMetrics_ActiveRequestsReturnToZero(t *testing.T) {
	before := testutil.ToFloat64(metrics.APIActiveRequests)

	var during float64
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(metrics.APIActiveRequests)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if during != before+1 {
		t.Errorf("active requests during handler = %v, want %v", during, before+1)
	}
	if after := testutil.ToFloat64(metrics.APIActiveRequests); after != before {
		t.Errorf("active requests after handler = %v, want %v", after, before)
	}
}

func TestMetricsResponseWriter(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, want 404", rw.statusCode)
		}
	})

	t.Run("hijack without support fails", func(t *testing.T) {
		rw := &metricsResponseWriter{ResponseWriter: httptest.NewRecorder()}
		if _, _, err := rw.Hijack(); err == nil {
			t.Error("expected error from Hijack on a recorder")
		}
	})

	t.Run("unwrap returns the inner writer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := &metricsResponseWriter{ResponseWriter: rec}
		if rw.Unwrap() != rec {
			t.Error("Unwrap did not return the wrapped recorder")
		}
	})
}
