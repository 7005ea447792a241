package mongodb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
)

// MessageAdapter adapts the MongoDB Repository to the MessageRepo interface.
type MessageAdapter struct {
	repo   *Repository
	logger *slog.Logger
}

// NewMessageAdapter creates a new MessageAdapter.
func NewMessageAdapter(client *Client, logger *slog.Logger) *MessageAdapter {
	return &MessageAdapter{
		repo:   NewRepository(client, "email_messages", logger),
		logger: logger,
	}
}

// Create inserts a new message document.
func (a *MessageAdapter) Create(ctx context.Context, m *models.EmailMessage) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	doc := Document{
		"_id":         m.ID,
		"tenantId":    m.TenantID,
		"provider":    m.Provider,
		"subject":     m.Subject,
		"toEmail":     m.ToEmail,
		"fromEmail":   m.FromEmail,
		"status":      string(m.Status),
		"trackOpens":  m.TrackOpens,
		"trackClicks": m.TrackClicks,
		"createdAt":   m.CreatedAt,
		"updatedAt":   m.UpdatedAt,
	}
	if m.LeadID.Valid {
		doc["leadId"] = m.LeadID.String
	}
	if m.ProviderMessageID.Valid {
		doc["providerMessageId"] = m.ProviderMessageID.String
	}
	if m.ErrorText.Valid {
		doc["errorText"] = m.ErrorText.String
	}

	_, err := a.repo.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

// GetByID retrieves a message by its ID.
func (a *MessageAdapter) GetByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	doc, err := a.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return documentToMessage(doc)
}

// ListByTenant retrieves messages for a tenant, newest first.
func (a *MessageAdapter) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.EmailMessage, error) {
	docs, err := a.repo.Find(ctx, Filter{"tenantId": tenantID}, &FindOptions{
		Sort:  bson.D{{Key: "createdAt", Value: -1}},
		Limit: int64(limit),
		Skip:  int64(offset),
	})
	if err != nil {
		return nil, err
	}

	messages := make([]*models.EmailMessage, 0, len(docs))
	for _, doc := range docs {
		m, err := documentToMessage(doc)
		if err != nil {
			a.logger.Warn("skipping malformed message document", "error", err)
			continue
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// SetProviderMessageID attaches the provider-assigned identifier.
func (a *MessageAdapter) SetProviderMessageID(ctx context.Context, id, providerMessageID string) error {
	modified, err := a.repo.UpdateOne(ctx, Filter{"_id": id}, Update{
		"$set": bson.M{"providerMessageId": providerMessageID},
	})
	if err != nil {
		return err
	}
	if modified == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MarkFailed flips the message status to failed and records the error text.
func (a *MessageAdapter) MarkFailed(ctx context.Context, id, errorText string) error {
	modified, err := a.repo.UpdateOne(ctx, Filter{"_id": id}, Update{
		"$set": bson.M{
			"status":    string(models.MessageStatusFailed),
			"errorText": errorText,
		},
	})
	if err != nil {
		return err
	}
	if modified == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// LinkAdapter adapts the MongoDB Repository to the LinkRepo interface.
type LinkAdapter struct {
	repo   *Repository
	logger *slog.Logger
}

// NewLinkAdapter creates a new LinkAdapter.
func NewLinkAdapter(client *Client, logger *slog.Logger) *LinkAdapter {
	return &LinkAdapter{
		repo:   NewRepository(client, "email_links", logger),
		logger: logger,
	}
}

// CreateBatch inserts all links of one message in a single batch.
func (a *LinkAdapter) CreateBatch(ctx context.Context, links []*models.EmailLink) error {
	if len(links) == 0 {
		return nil
	}

	now := time.Now().UTC()
	docs := make([]Document, len(links))
	for i, l := range links {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		docs[i] = Document{
			"_id":       l.ID,
			"messageId": l.MessageID,
			"url":       l.URL,
			"label":     l.Label,
			"position":  l.Position,
			"createdAt": l.CreatedAt,
		}
	}

	if _, err := a.repo.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("creating links: %w", err)
	}
	return nil
}

// ListByMessage retrieves the links of a message ordered by position.
func (a *LinkAdapter) ListByMessage(ctx context.Context, messageID string) ([]*models.EmailLink, error) {
	docs, err := a.repo.Find(ctx, Filter{"messageId": messageID}, &FindOptions{
		Sort: bson.D{{Key: "position", Value: 1}},
	})
	if err != nil {
		return nil, err
	}

	links := make([]*models.EmailLink, 0, len(docs))
	for _, doc := range docs {
		l, err := documentToLink(doc)
		if err != nil {
			a.logger.Warn("skipping malformed link document", "error", err)
			continue
		}
		links = append(links, l)
	}
	return links, nil
}

// CredentialAdapter adapts the MongoDB Repository to the CredentialRepo interface.
type CredentialAdapter struct {
	repo   *Repository
	logger *slog.Logger
}

// NewCredentialAdapter creates a new CredentialAdapter.
func NewCredentialAdapter(client *Client, logger *slog.Logger) *CredentialAdapter {
	return &CredentialAdapter{
		repo:   NewRepository(client, "provider_credentials", logger),
		logger: logger,
	}
}

// GetActive returns the active credential for the (tenant, provider) pair.
func (a *CredentialAdapter) GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	return a.findCredential(ctx, Filter{
		"tenantId": tenantID,
		"provider": provider,
		"active":   true,
	})
}

// GetDefault returns the system-wide default credential for the provider.
// Defaults are stored with an empty tenant id.
func (a *CredentialAdapter) GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	return a.findCredential(ctx, Filter{
		"tenantId": "",
		"provider": provider,
		"active":   true,
	})
}

func (a *CredentialAdapter) findCredential(ctx context.Context, filter Filter) (*models.ProviderCredential, error) {
	doc, err := a.repo.FindOne(ctx, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return documentToCredential(doc)
}

func documentToMessage(doc Document) (*models.EmailMessage, error) {
	m := &models.EmailMessage{
		ID:          docString(doc, "_id"),
		TenantID:    docString(doc, "tenantId"),
		Provider:    docString(doc, "provider"),
		Subject:     docString(doc, "subject"),
		ToEmail:     docString(doc, "toEmail"),
		FromEmail:   docString(doc, "fromEmail"),
		Status:      models.MessageStatus(docString(doc, "status")),
		TrackOpens:  docBool(doc, "trackOpens"),
		TrackClicks: docBool(doc, "trackClicks"),
		CreatedAt:   docTime(doc, "createdAt"),
		UpdatedAt:   docTime(doc, "updatedAt"),
	}
	if m.ID == "" {
		return nil, ErrInvalidID
	}
	if v := docString(doc, "leadId"); v != "" {
		m.LeadID = sql.NullString{String: v, Valid: true}
	}
	if v := docString(doc, "providerMessageId"); v != "" {
		m.ProviderMessageID = sql.NullString{String: v, Valid: true}
	}
	if v := docString(doc, "errorText"); v != "" {
		m.ErrorText = sql.NullString{String: v, Valid: true}
	}
	return m, nil
}

func documentToLink(doc Document) (*models.EmailLink, error) {
	l := &models.EmailLink{
		ID:        docString(doc, "_id"),
		MessageID: docString(doc, "messageId"),
		URL:       docString(doc, "url"),
		Label:     docString(doc, "label"),
		Position:  docInt(doc, "position"),
		CreatedAt: docTime(doc, "createdAt"),
	}
	if l.ID == "" {
		return nil, ErrInvalidID
	}
	return l, nil
}

func documentToCredential(doc Document) (*models.ProviderCredential, error) {
	c := &models.ProviderCredential{
		ID:        docString(doc, "_id"),
		TenantID:  docString(doc, "tenantId"),
		Provider:  docString(doc, "provider"),
		APIKey:    docString(doc, "apiKey"),
		APISecret: docString(doc, "apiSecret"),
		Host:      docString(doc, "host"),
		Port:      docInt(doc, "port"),
		Username:  docString(doc, "username"),
		Password:  docString(doc, "password"),
		FromEmail: docString(doc, "fromEmail"),
		FromName:  docString(doc, "fromName"),
		Active:    docBool(doc, "active"),
		CreatedAt: docTime(doc, "createdAt"),
		UpdatedAt: docTime(doc, "updatedAt"),
	}
	if c.ID == "" {
		return nil, ErrInvalidID
	}
	return c, nil
}

func docString(doc Document, field string) string {
	if v, ok := doc[field].(string); ok {
		return v
	}
	return ""
}

func docBool(doc Document, field string) bool {
	if v, ok := doc[field].(bool); ok {
		return v
	}
	return false
}

func docInt(doc Document, field string) int {
	switch v := doc[field].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func docTime(doc Document, field string) time.Time {
	switch v := doc[field].(type) {
	case time.Time:
		return v
	case primitive.DateTime:
		return v.Time()
	default:
		return time.Time{}
	}
}
