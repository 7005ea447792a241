package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/leadwire/outbound/internal/cache"
	"github.com/leadwire/outbound/internal/database/models"
)

// CachedCredentialRepository wraps a CredentialRepo with a read-through cache.
// Credential rows change rarely and are read on every dispatch, so hits are
// served from cache and misses fall through to the inner repository.
// Not-found results are never cached; a tenant adding a credential must see
// it on the next send.
type CachedCredentialRepository struct {
	inner CredentialRepo
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedCredentialRepository creates a caching decorator around inner.
// A zero ttl uses the cache's default TTL.
func NewCachedCredentialRepository(inner CredentialRepo, c cache.Cache, ttl time.Duration) *CachedCredentialRepository {
	return &CachedCredentialRepository{
		inner: inner,
		cache: c,
		ttl:   ttl,
	}
}

// GetActive retrieves the active credential for a (tenant, provider) pair,
// consulting the cache first.
func (r *CachedCredentialRepository) GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	key := credentialKey(tenantID, provider)

	var cached models.ProviderCredential
	if err := r.cache.GetJSON(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	cred, err := r.inner.GetActive(ctx, tenantID, provider)
	if err != nil {
		return nil, err
	}

	// Best effort; a failed cache write must not fail the dispatch.
	_ = r.cache.SetJSON(ctx, key, cred, r.ttl)

	return cred, nil
}

// GetDefault retrieves the system-wide default credential for a provider.
func (r *CachedCredentialRepository) GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	return r.GetActive(ctx, "", provider)
}

// Invalidate removes a cached credential, forcing the next read to hit the
// inner repository.
func (r *CachedCredentialRepository) Invalidate(ctx context.Context, tenantID, provider string) error {
	return r.cache.Delete(ctx, credentialKey(tenantID, provider))
}

func credentialKey(tenantID, provider string) string {
	return fmt.Sprintf("credential:%s:%s", tenantID, provider)
}
