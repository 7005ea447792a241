package repository

import (
	"context"
	"database/sql"

	"github.com/leadwire/outbound/internal/database/models"
)

// CredentialRepository handles provider credential reads.
// The dispatch engine never writes credential rows; they are managed by the
// tenant settings surface.
type CredentialRepository struct {
	baseRepository
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db Querier) *CredentialRepository {
	return &CredentialRepository{
		baseRepository: newBaseRepository(db),
	}
}

// GetActive retrieves the active credential for a (tenant, provider) pair.
func (r *CredentialRepository) GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	query := selectCredentialColumns + `
		WHERE tenant_id = $1 AND provider = $2 AND active = $3
		ORDER BY updated_at DESC
		LIMIT 1
	`
	row := r.db.QueryRowContext(ctx, query, tenantID, provider, true)
	return scanCredential(row)
}

// GetDefault retrieves the system-wide default credential for a provider.
// Defaults are stored with an empty tenant identifier.
func (r *CredentialRepository) GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	return r.GetActive(ctx, "", provider)
}

const selectCredentialColumns = `
	SELECT id, tenant_id, provider, api_key, api_secret, host, port,
	       username, password, from_email, from_name, active,
	       created_at, updated_at
	FROM provider_credentials`

func scanCredential(row rowScanner) (*models.ProviderCredential, error) {
	var c models.ProviderCredential
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Provider, &c.APIKey, &c.APISecret, &c.Host, &c.Port,
		&c.Username, &c.Password, &c.FromEmail, &c.FromName, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
