package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apitesting "github.com/leadwire/outbound/internal/api/testing"
	"github.com/leadwire/outbound/internal/api/types"
	"github.com/leadwire/outbound/internal/health"
)

// Live-server tests run the router behind a real HTTP listener, covering the
// full request path including keep-alive and transport-level encoding.

func TestLiveServer_HealthAndVersion(t *testing.T) {
	registry := health.NewRegistry("test")
	router, _ := newTestRouter(t, RouterConfig{Health: health.NewHandler(registry)})

	ts := apitesting.NewTestServer(t, router)
	defer ts.Close()

	resp := ts.MakeRequest("GET", "/health", nil)
	apitesting.AssertStatus(t, resp, http.StatusOK)
	apitesting.AssertContentType(t, resp, "application/json")

	var body map[string]interface{}
	apitesting.AssertJSON(t, resp, &body)
	assert.Equal(t, "healthy", body["status"])
}

func TestLiveServer_SendRejectsAnonymous(t *testing.T) {
	router, dispatcher := newTestRouter(t, RouterConfig{})

	ts := apitesting.NewTestServer(t, router)
	defer ts.Close()

	resp := ts.MakeRequest("POST", "/api/v1/emails/send", map[string]string{
		"to_email":  "lead@example.com",
		"subject":   "Hello",
		"html_body": "<p>Hi</p>",
	})
	apitesting.AssertStatus(t, resp, http.StatusUnauthorized)
	apitesting.AssertJSONError(t, resp, "authentication required")
	assert.Zero(t, dispatcher.calls)
}

func TestLiveServer_SendAuthenticated(t *testing.T) {
	router, dispatcher := newTestRouter(t, RouterConfig{})

	ts := apitesting.NewTestServer(t, router)
	defer ts.Close()

	payload, err := json.Marshal(map[string]string{
		"to_email":  "lead@example.com",
		"subject":   "Hello",
		"html_body": "<p>Hi</p>",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", ts.URL()+"/api/v1/emails/send", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "tenant-1"))

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)

	apitesting.AssertStatus(t, resp, http.StatusOK)

	var envelope types.SendEmailResponse
	apitesting.DecodeJSON(t, resp, &envelope)
	assert.True(t, envelope.Success)
	assert.Equal(t, "msg-1", envelope.MessageID)
	assert.Equal(t, 1, dispatcher.calls)
}
