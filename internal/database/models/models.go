// Package models defines domain models for the database layer.
package models

import (
	"database/sql"
	"time"
)

// MessageStatus represents the terminal lifecycle status of a send attempt.
type MessageStatus string

const (
	// MessageStatusSent is set optimistically when the record is created and
	// remains if the transport accepted the message.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusFailed is set once, after a transport failure.
	MessageStatusFailed MessageStatus = "failed"
)

// EmailMessage is one record per send attempt. The row is created immediately
// before transmission and updated exactly once when the attempt completes.
type EmailMessage struct {
	ID                string
	LeadID            sql.NullString
	TenantID          string
	Provider          string
	Subject           string
	ToEmail           string
	FromEmail         string
	Status            MessageStatus
	TrackOpens        bool
	TrackClicks       bool
	ProviderMessageID sql.NullString
	ErrorText         sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EmailLink is one row per qualifying anchor found in a message body at
// extraction time. Rows are immutable after the initial batch insert.
type EmailLink struct {
	ID        string
	MessageID string
	URL       string
	Label     string
	Position  int
	CreatedAt time.Time
}

// ProviderCredential is a tenant's sending configuration for one provider.
// A row with TenantID = "" is the system-wide default for that provider.
type ProviderCredential struct {
	ID        string
	TenantID  string
	Provider  string
	APIKey    string
	APISecret string
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewEmailMessage creates an EmailMessage with the optimistic initial status.
func NewEmailMessage(tenantID, provider, subject, to, from string) *EmailMessage {
	now := time.Now().UTC()
	return &EmailMessage{
		TenantID:  tenantID,
		Provider:  provider,
		Subject:   subject,
		ToEmail:   to,
		FromEmail: from,
		Status:    MessageStatusSent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
