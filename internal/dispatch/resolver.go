package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
)

// Resolver looks up a tenant's active sending configuration for a provider,
// falling back to the system-wide default configuration when none exists.
type Resolver struct {
	credentials repository.CredentialRepo
	logger      *slog.Logger
}

// NewResolver creates a new credential resolver.
func NewResolver(credentials repository.CredentialRepo, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		credentials: credentials,
		logger:      logger.With("component", "credential-resolver"),
	}
}

// Resolve returns the active credential for the (tenant, provider) pair, or
// the system-wide default for the provider. Absence of both is reported as a
// nil credential, not an error; the orchestrator decides whether that is
// fatal for the selected transport.
func (r *Resolver) Resolve(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	cred, err := r.credentials.GetActive(ctx, tenantID, provider)
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	cred, err = r.credentials.GetDefault(ctx, provider)
	if err == nil {
		r.logger.Debug("using system default credential",
			"tenant_id", tenantID,
			"provider", provider,
		)
		return cred, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return nil, nil
}
