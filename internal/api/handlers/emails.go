package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leadwire/outbound/internal/api/types"
	"github.com/leadwire/outbound/internal/auth"
	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
	"github.com/leadwire/outbound/internal/dispatch"
	"github.com/leadwire/outbound/internal/pagination"
)

// SendEmail handles POST /emails/send.
//
// Malformed or invalid requests get a 400 before any record is created.
// Everything past validation returns 200 with the outcome envelope; a failed
// dispatch is reported through the envelope, not the HTTP status.
func (h *Handler) SendEmail(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req types.SendEmailRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.respondValidationError(w, err)
		return
	}

	result := h.dispatcher.SendMessage(r.Context(), &dispatch.SendRequest{
		TenantID:    identity.TenantID,
		LeadID:      req.LeadID,
		ToEmail:     req.ToEmail,
		FromEmail:   req.FromEmail,
		Subject:     req.Subject,
		HTMLBody:    req.HTMLBody,
		Provider:    req.Provider,
		TrackOpens:  req.OpenTracking(),
		TrackClicks: req.ClickTracking(),
	})

	h.respondJSON(w, http.StatusOK, types.SendResponseFromResult(result))
}

// ListMessages handles GET /emails.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	page := pagination.ParsePageRequest(r)

	// Fetch one extra row to detect whether a next page exists.
	messages, err := h.messages.ListByTenant(r.Context(), identity.TenantID, page.Limit+1, page.GetOffset())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}

	hasNext := len(messages) > page.Limit
	if hasNext {
		messages = messages[:page.Limit]
	}

	h.respondJSON(w, http.StatusOK, pagination.NewPageResponse(types.MessagesFromModels(messages), page, hasNext))
}

// GetMessage handles GET /emails/{id}.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.tenantMessage(w, r)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, types.MessageFromModel(msg))
}

// GetMessageLinks handles GET /emails/{id}/links.
func (h *Handler) GetMessageLinks(w http.ResponseWriter, r *http.Request) {
	msg, ok := h.tenantMessage(w, r)
	if !ok {
		return
	}

	links, err := h.links.ListByMessage(r.Context(), msg.ID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to list links")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"data": types.LinksFromModels(links),
	})
}

// tenantMessage loads the message named by the id path parameter and verifies
// it belongs to the authenticated tenant. Messages of other tenants are
// indistinguishable from missing ones.
func (h *Handler) tenantMessage(w http.ResponseWriter, r *http.Request) (*models.EmailMessage, bool) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		h.respondError(w, http.StatusBadRequest, "message id is required")
		return nil, false
	}

	msg, err := h.messages.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, sql.ErrNoRows) {
			h.respondError(w, http.StatusNotFound, "message not found")
			return nil, false
		}
		h.respondError(w, http.StatusInternalServerError, "failed to get message")
		return nil, false
	}

	if msg.TenantID != identity.TenantID {
		h.respondError(w, http.StatusNotFound, "message not found")
		return nil, false
	}

	return msg, true
}
