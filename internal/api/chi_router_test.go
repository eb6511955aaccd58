// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/insightboard/internal/auth"
	"github.com/tomtom215/insightboard/internal/config"
	ws "github.com/tomtom215/insightboard/internal/websocket"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func setupRouter(t *testing.T, cfg *config.Config, svc InsightsService, hub *ws.Hub) http.Handler {
	t.Helper()
	router, err := NewRouter(NewHandler(svc, hub, cfg), cfg)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return router.SetupChi()
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{result: sampleResult()}, nil)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/data", "", http.StatusOK},
		{http.MethodGet, "/api/insights", "", http.StatusOK},
		{http.MethodPost, "/api/insert", `[{"topic":"oil"}]`, http.StatusCreated},
		{http.MethodGet, "/warmup", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/health/live", "", http.StatusOK},
		{http.MethodGet, "/health/ready", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/ws", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
		{http.MethodPost, "/api/data", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, tt.method, tt.path, tt.body, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouter_ErrorEnvelopeCarriesRequestID(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{}, nil)

	rec := serve(h, http.MethodGet, "/api/data?intensity_min=x", "", map[string]string{"X-Request-ID": "req-42"})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	apiErr := decodeError(t, rec)
	if apiErr.RequestID != "req-42" {
		t.Errorf("request_id = %q, want req-42", apiErr.RequestID)
	}
	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Errorf("X-Request-ID header = %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{}, nil)

	rec := serve(h, http.MethodGet, "/health", "", map[string]string{"X-Forwarded-Proto": "https"})

	for header, want := range map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRouter_CORS(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{}, nil)

	rec := serve(h, http.MethodOptions, "/api/insert", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allowed origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("allow credentials = %q, want true", got)
	}

	rec = serve(h, http.MethodGet, "/api/data", "", map[string]string{"Origin": "https://evil.example.com"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin was allowed: %q", got)
	}
}

func TestRouter_WriteRateLimit(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{}, nil)

	for i := 0; i < RateLimitWrite.Requests; i++ {
		if rec := serve(h, http.MethodPost, "/api/insert", `[{"topic":"oil"}]`, nil); rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}

	rec := serve(h, http.MethodPost, "/api/insert", `[{"topic":"oil"}]`, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != ErrCodeTooManyRequests {
		t.Errorf("code = %q", got.Code)
	}

	// Reads have their own budget.
	if rec := serve(h, http.MethodGet, "/api/data", "", nil); rec.Code != http.StatusOK {
		t.Errorf("read after write limit: status %d", rec.Code)
	}
}

func TestRouter_HealthNotRateLimited(t *testing.T) {
	h := setupRouter(t, testConfig(), &fakeService{}, nil)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		for i := 0; i < RateLimitRead.Requests*3; i++ {
			if rec := serve(h, http.MethodGet, path, "", nil); rec.Code == http.StatusTooManyRequests {
				t.Fatalf("%s request %d was rate limited", path, i+1)
			}
		}
	}
}

func TestRouter_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RateLimitDisabled = true
	h := setupRouter(t, cfg, &fakeService{}, nil)

	for i := 0; i < RateLimitWrite.Requests+5; i++ {
		if rec := serve(h, http.MethodGet, "/warmup", "", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
}

func TestRouter_IngestAuthJWT(t *testing.T) {
	cfg := testConfig()
	cfg.Security.IngestAuth = config.IngestAuthJWT
	cfg.Security.JWTSecret = testJWTSecret
	svc := &fakeService{}
	h := setupRouter(t, cfg, svc, nil)

	manager, err := auth.NewJWTManager(testJWTSecret)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	writer, _ := manager.GenerateToken("loader", auth.RoleWriter, time.Hour)
	reader, _ := manager.GenerateToken("viewer", "viewer", time.Hour)

	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"wrong role", reader, http.StatusForbidden},
		{"writer", writer, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.token != "" {
				headers["Authorization"] = "Bearer " + tt.token
			}
			rec := serve(h, http.MethodPost, "/api/insert", `[{"topic":"oil"}]`, headers)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}

	if rec := serve(h, http.MethodGet, "/api/data", "", nil); rec.Code != http.StatusOK {
		t.Errorf("reads must stay open, got %d", rec.Code)
	}
	if len(svc.ingested) != 1 {
		t.Errorf("ingested %d records, want 1", len(svc.ingested))
	}
}

func TestNewRouter_InvalidAuthConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Security.IngestAuth = config.IngestAuthJWT
	cfg.Security.JWTSecret = "short"

	if _, err := NewRouter(NewHandler(&fakeService{}, nil, cfg), cfg); err == nil {
		t.Fatal("expected error for short JWT secret")
	}
}

func TestRouter_WebSocketReceivesDatasetChanged(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	srv := httptest.NewServer(setupRouter(t, testConfig(), &fakeService{}, hub))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}}); err == nil {
		t.Fatal("foreign origin should be rejected")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign origin response = %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://localhost:3000"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.NotifyDatasetChanged(3, "local")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string                `json:"type"`
		Data ws.DatasetChangedData `json:"data"`
	}
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("decode %s: %v", payload, err)
	}
	if msg.Type != ws.MessageTypeDatasetChanged || msg.Data.Count != 3 || msg.Data.Origin != "local" {
		t.Errorf("message = %+v", msg)
	}
}
