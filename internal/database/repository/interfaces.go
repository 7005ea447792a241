package repository

import (
	"context"

	"github.com/leadwire/outbound/internal/database/models"
)

// MessageRepo defines the persistence contract for email messages.
// The dispatch engine creates exactly one row per send attempt and updates it
// exactly once with the terminal outcome.
type MessageRepo interface {
	Create(ctx context.Context, m *models.EmailMessage) error
	GetByID(ctx context.Context, id string) (*models.EmailMessage, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.EmailMessage, error)
	// SetProviderMessageID attaches the provider-assigned identifier after a
	// successful transmission. Status stays "sent".
	SetProviderMessageID(ctx context.Context, id, providerMessageID string) error
	// MarkFailed flips the status to "failed" and records the error text.
	MarkFailed(ctx context.Context, id, errorText string) error
}

// LinkRepo defines the persistence contract for extracted links.
type LinkRepo interface {
	// CreateBatch inserts all links of one message in a single batch.
	CreateBatch(ctx context.Context, links []*models.EmailLink) error
	ListByMessage(ctx context.Context, messageID string) ([]*models.EmailLink, error)
}

// CredentialRepo defines read access to provider credential configuration.
type CredentialRepo interface {
	// GetActive returns the active credential for the (tenant, provider) pair,
	// or ErrNotFound.
	GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error)
	// GetDefault returns the system-wide default credential for the provider,
	// or ErrNotFound.
	GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error)
}

// Repositories bundles all repositories sharing one database connection.
type Repositories struct {
	Messages    MessageRepo
	Links       LinkRepo
	Credentials CredentialRepo
}
