// Package testing provides test helpers for database tests.
package testing

import (
	"database/sql"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/leadwire/outbound/internal/database"
	"github.com/leadwire/outbound/internal/database/models"
)

// SetupTestDB creates an in-memory SQLite database for testing
// and runs all migrations.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// Enable foreign keys for SQLite
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	// Run migrations
	migrator := database.NewMigrator(db)
	if err := migrator.MigrateUp(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// TeardownTestDB closes the test database connection.
func TeardownTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// SeedTestData inserts sample test data into the database.
func SeedTestData(t *testing.T, db *sql.DB) *TestData {
	t.Helper()

	data := &TestData{}

	// Create test credential
	data.Credential = &models.ProviderCredential{
		ID:        uuid.New().String(),
		TenantID:  "tenant-test",
		Provider:  "sendgrid",
		APIKey:    "SG.test-key",
		FromEmail: "sender@test.example",
		FromName:  "Test Sender",
		Active:    true,
	}
	_, err := db.Exec(
		`INSERT INTO provider_credentials (id, tenant_id, provider, api_key, from_email, from_name, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		data.Credential.ID, data.Credential.TenantID, data.Credential.Provider,
		data.Credential.APIKey, data.Credential.FromEmail, data.Credential.FromName,
		data.Credential.Active,
	)
	if err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}

	// Create test message
	data.Message = models.NewEmailMessage(
		"tenant-test", "sendgrid", "Test subject",
		"lead@test.example", "sender@test.example",
	)
	data.Message.ID = uuid.New().String()
	data.Message.TrackOpens = true
	data.Message.TrackClicks = true
	_, err = db.Exec(
		`INSERT INTO email_messages (id, tenant_id, provider, subject, to_email, from_email, status, track_opens, track_clicks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		data.Message.ID, data.Message.TenantID, data.Message.Provider,
		data.Message.Subject, data.Message.ToEmail, data.Message.FromEmail,
		string(data.Message.Status), data.Message.TrackOpens, data.Message.TrackClicks,
	)
	if err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}

	// Create test link
	data.Link = &models.EmailLink{
		ID:        uuid.New().String(),
		MessageID: data.Message.ID,
		URL:       "https://test.example/offer",
		Label:     "See the offer",
		Position:  0,
	}
	_, err = db.Exec(
		`INSERT INTO email_links (id, message_id, url, label, position)
		 VALUES ($1, $2, $3, $4, $5)`,
		data.Link.ID, data.Link.MessageID, data.Link.URL, data.Link.Label, data.Link.Position,
	)
	if err != nil {
		t.Fatalf("failed to seed link: %v", err)
	}

	return data
}

// TestData holds seeded test data for use in tests.
type TestData struct {
	Message    *models.EmailMessage
	Link       *models.EmailLink
	Credential *models.ProviderCredential
}

// GenerateUUID returns a new UUID string for testing.
func GenerateUUID() string {
	return uuid.New().String()
}
