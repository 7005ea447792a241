package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadwire/outbound/internal/api/types"
	"github.com/leadwire/outbound/internal/auth"
	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
	"github.com/leadwire/outbound/internal/dispatch"
)

type fakeDispatcher struct {
	result *dispatch.SendResult
	last   *dispatch.SendRequest
	calls  int
}

func (f *fakeDispatcher) SendMessage(ctx context.Context, req *dispatch.SendRequest) *dispatch.SendResult {
	f.calls++
	f.last = req
	if f.result != nil {
		return f.result
	}
	return &dispatch.SendResult{Success: true, MessageID: "msg-1"}
}

type handlerFixture struct {
	handler    *Handler
	dispatcher *fakeDispatcher
	messages   *repository.MemoryMessageRepository
	links      *repository.MemoryLinkRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	dispatcher := &fakeDispatcher{}
	messages := repository.NewMemoryMessageRepository()
	links := repository.NewMemoryLinkRepository()

	return &handlerFixture{
		handler:    NewHandler(dispatcher, messages, links),
		dispatcher: dispatcher,
		messages:   messages,
		links:      links,
	}
}

// authenticated attaches a tenant identity, as the auth middleware would.
func authenticated(r *http.Request, tenantID string) *http.Request {
	ctx := auth.ContextWithIdentity(r.Context(), &auth.Identity{
		UserID:   "user-1",
		TenantID: tenantID,
	})
	return r.WithContext(ctx)
}

func postJSON(t *testing.T, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	r := httptest.NewRequest("POST", "/api/v1/emails/send", bytes.NewReader(data))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestSendEmail_Success(t *testing.T) {
	f := newHandlerFixture(t)

	req := authenticated(postJSON(t, map[string]any{
		"to_email":  "lead@example.com",
		"subject":   "Hello",
		"html_body": "<p>Hi</p>",
	}), "tenant-1")
	rec := httptest.NewRecorder()

	f.handler.SendEmail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[types.SendEmailResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "msg-1", resp.MessageID)

	require.Equal(t, 1, f.dispatcher.calls)
	assert.Equal(t, "tenant-1", f.dispatcher.last.TenantID)
	assert.Equal(t, "lead@example.com", f.dispatcher.last.ToEmail)
	assert.True(t, f.dispatcher.last.TrackOpens)
	assert.True(t, f.dispatcher.last.TrackClicks)
}

func TestSendEmail_FailureStillHTTP200(t *testing.T) {
	f := newHandlerFixture(t)
	f.dispatcher.result = &dispatch.SendResult{
		Success:   false,
		MessageID: "msg-2",
		Error:     "SMTP connection failed",
	}

	req := authenticated(postJSON(t, map[string]any{
		"to_email":  "lead@example.com",
		"subject":   "Hello",
		"html_body": "<p>Hi</p>",
	}), "tenant-1")
	rec := httptest.NewRecorder()

	f.handler.SendEmail(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[types.SendEmailResponse](t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "SMTP connection failed", resp.Error)
}

func TestSendEmail_TrackingFlagsPassedThrough(t *testing.T) {
	f := newHandlerFixture(t)

	req := authenticated(postJSON(t, map[string]any{
		"to_email":     "lead@example.com",
		"subject":      "Hello",
		"html_body":    "<p>Hi</p>",
		"track_opens":  false,
		"track_clicks": false,
		"provider":     "smtp",
	}), "tenant-1")
	rec := httptest.NewRecorder()

	f.handler.SendEmail(rec, req)

	require.Equal(t, 1, f.dispatcher.calls)
	assert.False(t, f.dispatcher.last.TrackOpens)
	assert.False(t, f.dispatcher.last.TrackClicks)
	assert.Equal(t, "smtp", f.dispatcher.last.Provider)
}

func TestSendEmail_ValidationError(t *testing.T) {
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{
			name:  "missing recipient",
			body:  map[string]any{"subject": "Hi", "html_body": "<p>x</p>"},
			field: "ToEmail",
		},
		{
			name:  "invalid recipient",
			body:  map[string]any{"to_email": "not-an-email", "subject": "Hi", "html_body": "<p>x</p>"},
			field: "ToEmail",
		},
		{
			name:  "missing subject",
			body:  map[string]any{"to_email": "a@b.com", "html_body": "<p>x</p>"},
			field: "Subject",
		},
		{
			name:  "missing body",
			body:  map[string]any{"to_email": "a@b.com", "subject": "Hi"},
			field: "HTMLBody",
		},
		{
			name:  "unsupported provider",
			body:  map[string]any{"to_email": "a@b.com", "subject": "Hi", "html_body": "<p>x</p>", "provider": "carrier-pigeon"},
			field: "Provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)

			req := authenticated(postJSON(t, tt.body), "tenant-1")
			rec := httptest.NewRecorder()

			f.handler.SendEmail(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[types.ErrorResponse](t, rec)
			assert.Equal(t, "validation failed", resp.Error)
			assert.Contains(t, resp.Details, tt.field)
			assert.Zero(t, f.dispatcher.calls)
		})
	}
}

func TestSendEmail_MalformedJSON(t *testing.T) {
	f := newHandlerFixture(t)

	r := httptest.NewRequest("POST", "/api/v1/emails/send", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	f.handler.SendEmail(rec, authenticated(r, "tenant-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.dispatcher.calls)
}

func TestSendEmail_Unauthenticated(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.SendEmail(rec, postJSON(t, map[string]any{
		"to_email":  "a@b.com",
		"subject":   "Hi",
		"html_body": "<p>x</p>",
	}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, f.dispatcher.calls)
}

func seedMessage(t *testing.T, repo *repository.MemoryMessageRepository, tenantID, subject string) *models.EmailMessage {
	t.Helper()
	m := models.NewEmailMessage(tenantID, "sendgrid", subject, "to@example.com", "from@example.com")
	require.NoError(t, repo.Create(context.Background(), m))
	return m
}

func TestListMessages_TenantScoped(t *testing.T) {
	f := newHandlerFixture(t)
	seedMessage(t, f.messages, "tenant-1", "One")
	seedMessage(t, f.messages, "tenant-1", "Two")
	seedMessage(t, f.messages, "tenant-2", "Other")

	req := authenticated(httptest.NewRequest("GET", "/api/v1/emails", nil), "tenant-1")
	rec := httptest.NewRecorder()

	f.handler.ListMessages(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []*types.MessageResponse `json:"data"`
		Pagination struct {
			Page    int  `json:"page"`
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Data, 2)
	for _, m := range resp.Data {
		assert.Equal(t, "tenant-1", m.TenantID)
	}
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.False(t, resp.Pagination.HasNext)
}

func TestListMessages_Pagination(t *testing.T) {
	f := newHandlerFixture(t)
	for i := 0; i < 3; i++ {
		seedMessage(t, f.messages, "tenant-1", "Subject")
	}

	req := authenticated(httptest.NewRequest("GET", "/api/v1/emails?page=1&limit=2", nil), "tenant-1")
	rec := httptest.NewRecorder()

	f.handler.ListMessages(rec, req)

	var resp struct {
		Data       []*types.MessageResponse `json:"data"`
		Pagination struct {
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.Pagination.HasNext)
}

// routeRequest dispatches through a chi router so URL parameters resolve.
func routeRequest(h http.HandlerFunc, method, path, pattern string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(rec, authenticated(req, "tenant-1"))
	return rec
}

func TestGetMessage(t *testing.T) {
	f := newHandlerFixture(t)
	m := seedMessage(t, f.messages, "tenant-1", "Hello")

	rec := routeRequest(f.handler.GetMessage, "GET", "/emails/"+m.ID, "/emails/{id}")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp types.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, m.ID, resp.ID)
	assert.Equal(t, "Hello", resp.Subject)
}

func TestGetMessage_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	rec := routeRequest(f.handler.GetMessage, "GET", "/emails/missing", "/emails/{id}")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMessage_OtherTenantHidden(t *testing.T) {
	f := newHandlerFixture(t)
	m := seedMessage(t, f.messages, "tenant-2", "Secret")

	rec := routeRequest(f.handler.GetMessage, "GET", "/emails/"+m.ID, "/emails/{id}")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMessageLinks(t *testing.T) {
	f := newHandlerFixture(t)
	m := seedMessage(t, f.messages, "tenant-1", "Hello")
	require.NoError(t, f.links.CreateBatch(context.Background(), []*models.EmailLink{
		{MessageID: m.ID, URL: "https://example.com/a", Label: "A", Position: 0},
		{MessageID: m.ID, URL: "https://example.com/b", Label: "B", Position: 1},
	}))

	rec := routeRequest(f.handler.GetMessageLinks, "GET", "/emails/"+m.ID+"/links", "/emails/{id}/links")

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []*types.LinkResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, 0, resp.Data[0].Position)
	assert.Equal(t, "https://example.com/a", resp.Data[0].URL)
}
