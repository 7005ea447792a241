package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
	dbtesting "github.com/leadwire/outbound/internal/database/testing"
)

func TestMessageRepository_CreateAndGet(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	repo := repository.NewMessageRepository(db)

	msg := models.NewEmailMessage("tenant-1", "sendgrid", "Hello", "to@example.com", "from@example.com")
	msg.TrackOpens = true
	msg.TrackClicks = false
	msg.LeadID = sql.NullString{String: dbtesting.GenerateUUID(), Valid: true}

	require.NoError(t, repo.Create(context.Background(), msg))
	require.NotEmpty(t, msg.ID, "Create should assign an ID")

	got, err := repo.GetByID(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, models.MessageStatusSent, got.Status)
	assert.True(t, got.TrackOpens)
	assert.False(t, got.TrackClicks)
	assert.Equal(t, msg.LeadID, got.LeadID)
	assert.False(t, got.ProviderMessageID.Valid)
	assert.False(t, got.ErrorText.Valid)
}

func TestMessageRepository_GetByID_NotFound(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	repo := repository.NewMessageRepository(db)

	_, err := repo.GetByID(context.Background(), dbtesting.GenerateUUID())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessageRepository_ListByTenant(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	repo := repository.NewMessageRepository(db)

	for i := 0; i < 3; i++ {
		msg := models.NewEmailMessage("tenant-a", "smtp", "Subject", "to@example.com", "from@example.com")
		require.NoError(t, repo.Create(context.Background(), msg))
	}
	other := models.NewEmailMessage("tenant-b", "smtp", "Subject", "to@example.com", "from@example.com")
	require.NoError(t, repo.Create(context.Background(), other))

	messages, err := repo.ListByTenant(context.Background(), "tenant-a", 10, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	for _, m := range messages {
		assert.Equal(t, "tenant-a", m.TenantID)
	}

	page, err := repo.ListByTenant(context.Background(), "tenant-a", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestMessageRepository_SetProviderMessageID(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	data := dbtesting.SeedTestData(t, db)
	repo := repository.NewMessageRepository(db)

	require.NoError(t, repo.SetProviderMessageID(context.Background(), data.Message.ID, "sg-msg-123"))

	got, err := repo.GetByID(context.Background(), data.Message.ID)
	require.NoError(t, err)
	assert.True(t, got.ProviderMessageID.Valid)
	assert.Equal(t, "sg-msg-123", got.ProviderMessageID.String)

	err = repo.SetProviderMessageID(context.Background(), dbtesting.GenerateUUID(), "sg-msg-456")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessageRepository_MarkFailed(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	data := dbtesting.SeedTestData(t, db)
	repo := repository.NewMessageRepository(db)

	require.NoError(t, repo.MarkFailed(context.Background(), data.Message.ID, "connection refused"))

	got, err := repo.GetByID(context.Background(), data.Message.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusFailed, got.Status)
	assert.True(t, got.ErrorText.Valid)
	assert.Equal(t, "connection refused", got.ErrorText.String)

	// Already failed: the status transition happens at most once.
	err = repo.MarkFailed(context.Background(), data.Message.ID, "second attempt")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLinkRepository_CreateBatchAndList(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	data := dbtesting.SeedTestData(t, db)
	repo := repository.NewLinkRepository(db)

	links := []*models.EmailLink{
		{MessageID: data.Message.ID, URL: "https://example.com/b", Label: "B", Position: 2},
		{MessageID: data.Message.ID, URL: "https://example.com/a", Label: "A", Position: 1},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), links))
	for _, l := range links {
		assert.NotEmpty(t, l.ID, "CreateBatch should assign IDs")
	}

	got, err := repo.ListByMessage(context.Background(), data.Message.ID)
	require.NoError(t, err)
	require.Len(t, got, 3) // seeded link at position 0 plus the two above
	assert.Equal(t, 0, got[0].Position)
	assert.Equal(t, "https://example.com/a", got[1].URL)
	assert.Equal(t, "https://example.com/b", got[2].URL)
}

func TestLinkRepository_CreateBatch_Empty(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	repo := repository.NewLinkRepository(db)
	assert.NoError(t, repo.CreateBatch(context.Background(), nil))
}

func TestLinkRepository_ListByMessage_Empty(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	repo := repository.NewLinkRepository(db)

	got, err := repo.ListByMessage(context.Background(), dbtesting.GenerateUUID())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCredentialRepository_GetActive(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	data := dbtesting.SeedTestData(t, db)
	repo := repository.NewCredentialRepository(db)

	got, err := repo.GetActive(context.Background(), "tenant-test", "sendgrid")
	require.NoError(t, err)
	assert.Equal(t, data.Credential.ID, got.ID)
	assert.Equal(t, "SG.test-key", got.APIKey)
	assert.True(t, got.Active)

	_, err = repo.GetActive(context.Background(), "tenant-test", "smtp")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialRepository_GetActive_IgnoresInactive(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	_, err := db.Exec(
		`INSERT INTO provider_credentials (id, tenant_id, provider, api_key, active)
		 VALUES ($1, $2, $3, $4, $5)`,
		dbtesting.GenerateUUID(), "tenant-x", "sendgrid", "SG.revoked", false,
	)
	require.NoError(t, err)

	repo := repository.NewCredentialRepository(db)
	_, err = repo.GetActive(context.Background(), "tenant-x", "sendgrid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCredentialRepository_GetDefault(t *testing.T) {
	db := dbtesting.SetupTestDB(t)
	defer dbtesting.TeardownTestDB(t, db)

	_, err := db.Exec(
		`INSERT INTO provider_credentials (id, tenant_id, provider, host, port, username, password, from_email, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		dbtesting.GenerateUUID(), "", "smtp", "smtp.default.example", 587, "mailer", "secret", "noreply@default.example", true,
	)
	require.NoError(t, err)

	repo := repository.NewCredentialRepository(db)

	got, err := repo.GetDefault(context.Background(), "smtp")
	require.NoError(t, err)
	assert.Empty(t, got.TenantID)
	assert.Equal(t, "smtp.default.example", got.Host)
	assert.Equal(t, 587, got.Port)

	_, err = repo.GetDefault(context.Background(), "sendgrid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
