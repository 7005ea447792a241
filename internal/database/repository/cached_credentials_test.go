package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadwire/outbound/internal/cache"
	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
)

type countingCredentialRepo struct {
	inner repository.CredentialRepo
	calls int
}

func (c *countingCredentialRepo) GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	c.calls++
	return c.inner.GetActive(ctx, tenantID, provider)
}

func (c *countingCredentialRepo) GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	c.calls++
	return c.inner.GetDefault(ctx, provider)
}

func newCachedFixture(t *testing.T) (*countingCredentialRepo, *repository.MemoryCredentialRepository, *repository.CachedCredentialRepository) {
	t.Helper()

	mem := repository.NewMemoryCredentialRepository()
	counting := &countingCredentialRepo{inner: mem}
	c := cache.NewMemoryCache(cache.Config{DefaultTTL: time.Minute})
	t.Cleanup(func() { c.Close() })

	return counting, mem, repository.NewCachedCredentialRepository(counting, c, time.Minute)
}

func TestCachedCredentialRepository_ServesFromCache(t *testing.T) {
	counting, mem, cached := newCachedFixture(t)

	mem.Put(&models.ProviderCredential{
		ID:       "cred-1",
		TenantID: "tenant-1",
		Provider: "sendgrid",
		APIKey:   "SG.key",
		Active:   true,
	})

	first, err := cached.GetActive(context.Background(), "tenant-1", "sendgrid")
	require.NoError(t, err)
	assert.Equal(t, "cred-1", first.ID)
	assert.Equal(t, 1, counting.calls)

	second, err := cached.GetActive(context.Background(), "tenant-1", "sendgrid")
	require.NoError(t, err)
	assert.Equal(t, "cred-1", second.ID)
	assert.Equal(t, 1, counting.calls, "second read should not hit the inner repository")
}

func TestCachedCredentialRepository_DoesNotCacheNotFound(t *testing.T) {
	counting, mem, cached := newCachedFixture(t)

	_, err := cached.GetActive(context.Background(), "tenant-1", "smtp")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 1, counting.calls)

	// Credential appears; the next read must see it.
	mem.Put(&models.ProviderCredential{
		ID:       "cred-2",
		TenantID: "tenant-1",
		Provider: "smtp",
		Host:     "smtp.example.com",
		Port:     587,
		Active:   true,
	})

	got, err := cached.GetActive(context.Background(), "tenant-1", "smtp")
	require.NoError(t, err)
	assert.Equal(t, "cred-2", got.ID)
	assert.Equal(t, 2, counting.calls)
}

func TestCachedCredentialRepository_GetDefault(t *testing.T) {
	counting, mem, cached := newCachedFixture(t)

	mem.Put(&models.ProviderCredential{
		ID:       "default-ses",
		TenantID: "",
		Provider: "ses",
		APIKey:   "AKIA...",
		Active:   true,
	})

	got, err := cached.GetDefault(context.Background(), "ses")
	require.NoError(t, err)
	assert.Equal(t, "default-ses", got.ID)

	_, err = cached.GetDefault(context.Background(), "ses")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)
}

func TestCachedCredentialRepository_Invalidate(t *testing.T) {
	counting, mem, cached := newCachedFixture(t)

	mem.Put(&models.ProviderCredential{
		ID:       "cred-3",
		TenantID: "tenant-2",
		Provider: "sendgrid",
		APIKey:   "SG.old",
		Active:   true,
	})

	_, err := cached.GetActive(context.Background(), "tenant-2", "sendgrid")
	require.NoError(t, err)

	require.NoError(t, cached.Invalidate(context.Background(), "tenant-2", "sendgrid"))

	_, err = cached.GetActive(context.Background(), "tenant-2", "sendgrid")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls, "invalidation should force a fresh read")
}
