// Package testing spins up the dispatch API against httptest and offers
// the request/assertion helpers the API tests share.
package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// TestServer runs a router over a real listener so tests exercise the
// full middleware chain, auth included.
type TestServer struct {
	*httptest.Server
	t *testing.T
}

func NewTestServer(t *testing.T, router chi.Router) *TestServer {
	return &TestServer{
		Server: httptest.NewServer(router),
		t:      t,
	}
}

// Client returns the test server's HTTP client.
func (ts *TestServer) Client() *http.Client {
	return ts.Server.Client()
}

// URL returns the test server's base URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// MakeRequest sends a request to the server. A non-nil body is encoded
// as JSON.
func (ts *TestServer) MakeRequest(method, path string, body interface{}) *http.Response {
	ts.t.Helper()

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err, "encoding request body")
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.URL()+path, reqBody)
	require.NoError(ts.t, err, "building request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ts.Client().Do(req)
	require.NoError(ts.t, err, "executing request")
	return resp
}

// AssertStatus fails the test unless the response carries want.
func AssertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	require.Equal(t, want, resp.StatusCode, "status code")
}

// AssertContentType fails unless the Content-Type header contains want.
func AssertContentType(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	require.Contains(t, resp.Header.Get("Content-Type"), want, "content type")
}

// AssertJSON decodes the body into v, closing it.
func AssertJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "reading response body")
	require.NoError(t, json.Unmarshal(body, v), "decoding response: %s", body)
}

// DecodeJSON is AssertJSON under the name the success-path tests read
// more naturally.
func DecodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	AssertJSON(t, resp, v)
}

// ErrorResponse mirrors the API's error envelope for assertions.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// AssertJSONError decodes an error envelope and checks its message.
func AssertJSONError(t *testing.T, resp *http.Response, wantMessage string) {
	t.Helper()
	var errResp ErrorResponse
	AssertJSON(t, resp, &errResp)
	require.Equal(t, wantMessage, errResp.Error, "error message")
}
