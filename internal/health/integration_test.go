package health_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/leadwire/outbound/internal/health"
	"github.com/leadwire/outbound/internal/health/checks"
)

type failingPinger struct {
	err error
}

func (f *failingPinger) Ping(context.Context) error { return f.err }

// Wires a registry the way the server command does: critical database
// check, warning-severity cache check, and a custom queue probe.
func TestEndpointsWithRealCheckers(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	registry := health.NewRegistry("0.3.0")
	registry.Register(checks.NewDatabaseChecker(db))
	registry.Register(checks.NewCacheChecker(
		&failingPinger{err: context.DeadlineExceeded},
		checks.WithCacheSeverity(health.SeverityWarning),
	))
	registry.Register(checks.NewCustomChecker("dispatch-queue", func(context.Context) health.CheckResult {
		return health.CheckResult{Status: health.StatusHealthy, Details: map[string]any{"depth": 0}}
	}))

	handler := health.NewHandler(registry)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.HealthHandler)
	mux.HandleFunc("/health/live", handler.LivenessHandler)
	mux.HandleFunc("/health/ready", handler.ReadinessHandler)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	get := func(path string) (int, health.Response) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body health.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	t.Run("live", func(t *testing.T) {
		code, body := get("/health/live")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, health.StatusHealthy, body.Status)
		assert.Equal(t, "0.3.0", body.Version)
	})

	t.Run("ready ignores warning cache failure", func(t *testing.T) {
		code, body := get("/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, health.StatusHealthy, body.Status)
		assert.NotContains(t, body.Checks, "cache")
	})

	t.Run("full health is degraded", func(t *testing.T) {
		code, body := get("/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, health.StatusDegraded, body.Status)
		assert.Contains(t, body.Checks["cache"].Message, "deadline")
		assert.Contains(t, body.Checks, "dispatch-queue")
	})

	t.Run("ready fails once the database goes away", func(t *testing.T) {
		require.NoError(t, db.Close())

		code, body := get("/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, health.StatusUnhealthy, body.Status)
	})
}
