package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/leadwire/outbound/internal/database/models"
)

// LinkRepository handles email link persistence.
type LinkRepository struct {
	baseRepository
}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(db Querier) *LinkRepository {
	return &LinkRepository{
		baseRepository: newBaseRepository(db),
	}
}

// WithTx returns a new LinkRepository using the given transaction.
func (r *LinkRepository) WithTx(tx *sql.Tx) *LinkRepository {
	return NewLinkRepository(tx)
}

// CreateBatch inserts all links of one message. Identifiers are assigned
// before any insert so callers can reference them immediately.
func (r *LinkRepository) CreateBatch(ctx context.Context, links []*models.EmailLink) error {
	if len(links) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, l := range links {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
	}

	query := `
		INSERT INTO email_links (id, message_id, url, label, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, l := range links {
		if _, err := r.db.ExecContext(ctx, query,
			l.ID, l.MessageID, l.URL, l.Label, l.Position, l.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListByMessage retrieves a message's links ordered by body position.
func (r *LinkRepository) ListByMessage(ctx context.Context, messageID string) ([]*models.EmailLink, error) {
	query := `
		SELECT id, message_id, url, label, position, created_at
		FROM email_links
		WHERE message_id = $1
		ORDER BY position ASC
	`
	rows, err := r.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.EmailLink
	for rows.Next() {
		var l models.EmailLink
		if err := rows.Scan(&l.ID, &l.MessageID, &l.URL, &l.Label, &l.Position, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}
