package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/leadwire/outbound/internal/database/models"
)

// MessageRepository handles email message persistence.
type MessageRepository struct {
	baseRepository
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db Querier) *MessageRepository {
	return &MessageRepository{
		baseRepository: newBaseRepository(db),
	}
}

// WithTx returns a new MessageRepository using the given transaction.
func (r *MessageRepository) WithTx(tx *sql.Tx) *MessageRepository {
	return NewMessageRepository(tx)
}

// Create inserts a new message row.
func (r *MessageRepository) Create(ctx context.Context, m *models.EmailMessage) error {
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

	query := `
		INSERT INTO email_messages
			(id, lead_id, tenant_id, provider, subject, to_email, from_email,
			 status, track_opens, track_clicks, provider_message_id, error_text,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.LeadID, m.TenantID, m.Provider, m.Subject, m.ToEmail, m.FromEmail,
		string(m.Status), m.TrackOpens, m.TrackClicks, m.ProviderMessageID, m.ErrorText,
		m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// GetByID retrieves a message by its ID.
func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	query := selectMessageColumns + ` WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanMessage(row)
}

// ListByTenant retrieves a tenant's messages, newest first.
func (r *MessageRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.EmailMessage, error) {
	query := selectMessageColumns + `
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.EmailMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// SetProviderMessageID attaches the provider-assigned identifier to a sent message.
func (r *MessageRepository) SetProviderMessageID(ctx context.Context, id, providerMessageID string) error {
	query := `
		UPDATE email_messages
		SET provider_message_id = $1, updated_at = $2
		WHERE id = $3
	`
	res, err := r.db.ExecContext(ctx, query, providerMessageID, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// MarkFailed sets the terminal failed status and records the transport error.
func (r *MessageRepository) MarkFailed(ctx context.Context, id, errorText string) error {
	query := `
		UPDATE email_messages
		SET status = $1, error_text = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		string(models.MessageStatusFailed), errorText, time.Now().UTC(),
		id, string(models.MessageStatusSent),
	)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

const selectMessageColumns = `
	SELECT id, lead_id, tenant_id, provider, subject, to_email, from_email,
	       status, track_opens, track_clicks, provider_message_id, error_text,
	       created_at, updated_at
	FROM email_messages`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*models.EmailMessage, error) {
	var m models.EmailMessage
	var status string
	err := row.Scan(
		&m.ID, &m.LeadID, &m.TenantID, &m.Provider, &m.Subject, &m.ToEmail, &m.FromEmail,
		&status, &m.TrackOpens, &m.TrackClicks, &m.ProviderMessageID, &m.ErrorText,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	m.Status = models.MessageStatus(status)
	return &m, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
