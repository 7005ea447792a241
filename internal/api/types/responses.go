// Package types defines API request and response types.
package types

import (
	"time"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/dispatch"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// SendEmailResponse is the dispatch outcome envelope. It is returned with
// HTTP 200 for every authenticated, well-formed request; the Success flag
// carries the actual outcome.
type SendEmailResponse struct {
	Success           bool   `json:"success"`
	MessageID         string `json:"messageId,omitempty"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	Error             string `json:"error,omitempty"`
}

// SendResponseFromResult converts a dispatch result to an API response.
func SendResponseFromResult(r *dispatch.SendResult) *SendEmailResponse {
	return &SendEmailResponse{
		Success:           r.Success,
		MessageID:         r.MessageID,
		ProviderMessageID: r.ProviderMessageID,
		Error:             r.Error,
	}
}

// MessageResponse represents a dispatched message in API responses.
type MessageResponse struct {
	ID                string    `json:"id"`
	LeadID            *string   `json:"lead_id,omitempty"`
	TenantID          string    `json:"tenant_id"`
	Provider          string    `json:"provider"`
	Subject           string    `json:"subject"`
	ToEmail           string    `json:"to_email"`
	FromEmail         string    `json:"from_email"`
	Status            string    `json:"status"`
	TrackOpens        bool      `json:"track_opens"`
	TrackClicks       bool      `json:"track_clicks"`
	ProviderMessageID *string   `json:"provider_message_id,omitempty"`
	ErrorText         *string   `json:"error_text,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MessageFromModel converts a database model to an API response.
func MessageFromModel(m *models.EmailMessage) *MessageResponse {
	resp := &MessageResponse{
		ID:          m.ID,
		TenantID:    m.TenantID,
		Provider:    m.Provider,
		Subject:     m.Subject,
		ToEmail:     m.ToEmail,
		FromEmail:   m.FromEmail,
		Status:      string(m.Status),
		TrackOpens:  m.TrackOpens,
		TrackClicks: m.TrackClicks,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.LeadID.Valid {
		resp.LeadID = &m.LeadID.String
	}
	if m.ProviderMessageID.Valid {
		resp.ProviderMessageID = &m.ProviderMessageID.String
	}
	if m.ErrorText.Valid {
		resp.ErrorText = &m.ErrorText.String
	}
	return resp
}

// MessagesFromModels converts a slice of database models to API responses.
func MessagesFromModels(messages []*models.EmailMessage) []*MessageResponse {
	responses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = MessageFromModel(m)
	}
	return responses
}

// LinkResponse represents a tracked link in API responses.
type LinkResponse struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	URL       string    `json:"url"`
	Label     string    `json:"label"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkFromModel converts a database model to an API response.
func LinkFromModel(l *models.EmailLink) *LinkResponse {
	return &LinkResponse{
		ID:        l.ID,
		MessageID: l.MessageID,
		URL:       l.URL,
		Label:     l.Label,
		Position:  l.Position,
		CreatedAt: l.CreatedAt,
	}
}

// LinksFromModels converts a slice of database models to API responses.
func LinksFromModels(links []*models.EmailLink) []*LinkResponse {
	responses := make([]*LinkResponse, len(links))
	for i, l := range links {
		responses[i] = LinkFromModel(l)
	}
	return responses
}
