package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/photodrop/service/internal/ratelimit"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequireSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		target string
		want   int
	}{
		{"match", "s3cret", "/report.csv?key=s3cret", http.StatusOK},
		{"wrong key", "s3cret", "/report.csv?key=nope", http.StatusUnauthorized},
		{"prefix only", "s3cret", "/report.csv?key=s3cre", http.StatusUnauthorized},
		{"missing key", "s3cret", "/report.csv", http.StatusUnauthorized},
		{"no secret configured", "", "/report.csv?key=", http.StatusUnauthorized},
		{"no secret configured with key", "", "/report.csv?key=SECRET", http.StatusUnauthorized},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequireSecret(tt.secret)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.want, rec.Code)
			if rec.Code == http.StatusUnauthorized {
				bodies = append(bodies, rec.Body.String())
			}
		})
	}

	require.NotEmpty(t, bodies)
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b, "rejections must be indistinguishable")
	}
	assert.JSONEq(t, `{"error":"Unauthorized","code":"UNAUTHORIZED"}`, bodies[0])
}

func TestRateLimit_BlocksAfterLimit(t *testing.T) {
	h := RateLimit(ratelimit.NewMemoryLimiter(), "upload", 10, time.Minute, zap.NewNop())(okHandler)

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/upload-photo", nil)
		req.RemoteAddr = "203.0.113.7:51000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/upload-photo", nil)
	req.RemoteAddr = "203.0.113.7:51001"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.Greater(t, body["retry_after_seconds"], float64(0))

	// A different client still has budget.
	req = httptest.NewRequest(http.MethodPost, "/api/upload-photo", nil)
	req.RemoteAddr = "198.51.100.1:4000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_ScopesByName(t *testing.T) {
	l := ratelimit.NewMemoryLimiter()
	report := RateLimit(l, "report", 1, time.Minute, zap.NewNop())(okHandler)
	register := RateLimit(l, "register", 1, time.Minute, zap.NewNop())(okHandler)

	do := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, do(report))
	assert.Equal(t, http.StatusOK, do(register))
	assert.Equal(t, http.StatusTooManyRequests, do(report))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("dial tcp: connection refused")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	h := RateLimit(failingLimiter{}, "register", 5, time.Minute, zap.New(core))(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/register", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable").Len())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:8080"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.RemoteAddr = "192.0.2.10"
	assert.Equal(t, "192.0.2.10", ClientIP(req))
}

func TestLogger_RecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := chimw.RequestID(Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/uploads/x/qr", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/uploads/x/qr", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
