package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loggedRequest(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	logger := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	rec := httptest.NewRecorder()
	RequestLogger(logger.Logger)(handler).ServeHTTP(rec, req)

	return rec, lastLine(t, &buf)
}

func TestRequestLoggerLogsAccessLine(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"msg-1"}`))
	})

	rec, entry := loggedRequest(t, handler, httptest.NewRequest(http.MethodPost, "/v1/emails/send", nil))

	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, http.MethodPost, entry["method"])
	assert.Equal(t, "/v1/emails/send", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, float64(14), entry["bytes"])
	assert.Equal(t, "INFO", entry["level"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestLoggerGeneratesAndPropagatesRequestID(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	})

	rec, entry := loggedRequest(t, handler, httptest.NewRequest(http.MethodGet, "/v1/emails", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, seen, entry["request_id"])
}

func TestRequestLoggerKeepsClientRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/v1/emails", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")

	rec, entry := loggedRequest(t, handler, req)

	assert.Equal(t, "client-supplied-id", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "client-supplied-id", entry["request_id"])
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"success", http.StatusOK, "INFO"},
		{"client error", http.StatusUnprocessableEntity, "WARN"},
		{"server error", http.StatusBadGateway, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, entry := loggedRequest(t, handler, httptest.NewRequest(http.MethodPost, "/v1/emails/send", nil))

			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestRequestLoggerNilLoggerUsesDefault(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		RequestLogger(nil)(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
