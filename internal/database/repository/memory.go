package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leadwire/outbound/internal/database/models"
)

// MemoryMessageRepository is an in-memory implementation of MessageRepo.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages map[string]*models.EmailMessage
}

// NewMemoryMessageRepository creates a new in-memory message repository.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		messages: make(map[string]*models.EmailMessage),
	}
}

// Create stores a message in memory.
func (r *MemoryMessageRepository) Create(ctx context.Context, m *models.EmailMessage) error {
	if m == nil {
		return fmt.Errorf("message is nil")
	}
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

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modification
	cp := *m
	r.messages[m.ID] = &cp
	return nil
}

// GetByID retrieves a message by ID.
func (r *MemoryMessageRepository) GetByID(ctx context.Context, id string) (*models.EmailMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// ListByTenant retrieves a tenant's messages, newest first.
func (r *MemoryMessageRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*models.EmailMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*models.EmailMessage
	for _, m := range r.messages {
		if m.TenantID != tenantID {
			continue
		}
		cp := *m
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	if offset >= len(results) {
		return nil, nil
	}
	results = results[offset:]
	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

// SetProviderMessageID attaches the provider-assigned identifier.
func (r *MemoryMessageRepository) SetProviderMessageID(ctx context.Context, id, providerMessageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[id]
	if !ok {
		return ErrNotFound
	}
	m.ProviderMessageID.String = providerMessageID
	m.ProviderMessageID.Valid = true
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkFailed sets the terminal failed status.
func (r *MemoryMessageRepository) MarkFailed(ctx context.Context, id, errorText string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.messages[id]
	if !ok || m.Status != models.MessageStatusSent {
		return ErrNotFound
	}
	m.Status = models.MessageStatusFailed
	m.ErrorText.String = errorText
	m.ErrorText.Valid = true
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryLinkRepository is an in-memory implementation of LinkRepo.
type MemoryLinkRepository struct {
	mu    sync.RWMutex
	links map[string][]*models.EmailLink // keyed by message ID
}

// NewMemoryLinkRepository creates a new in-memory link repository.
func NewMemoryLinkRepository() *MemoryLinkRepository {
	return &MemoryLinkRepository{
		links: make(map[string][]*models.EmailLink),
	}
}

// CreateBatch stores all links of one message.
func (r *MemoryLinkRepository) CreateBatch(ctx context.Context, links []*models.EmailLink) error {
	if len(links) == 0 {
		return nil
	}

	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range links {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		if l.CreatedAt.IsZero() {
			l.CreatedAt = now
		}
		cp := *l
		r.links[l.MessageID] = append(r.links[l.MessageID], &cp)
	}
	return nil
}

// ListByMessage retrieves a message's links ordered by position.
func (r *MemoryLinkRepository) ListByMessage(ctx context.Context, messageID string) ([]*models.EmailLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.links[messageID]
	results := make([]*models.EmailLink, 0, len(stored))
	for _, l := range stored {
		cp := *l
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	return results, nil
}

// MemoryCredentialRepository is an in-memory implementation of CredentialRepo.
type MemoryCredentialRepository struct {
	mu          sync.RWMutex
	credentials []*models.ProviderCredential
}

// NewMemoryCredentialRepository creates a new in-memory credential repository.
func NewMemoryCredentialRepository() *MemoryCredentialRepository {
	return &MemoryCredentialRepository{}
}

// Put stores a credential, replacing any existing row for the same
// (tenant, provider) pair.
func (r *MemoryCredentialRepository) Put(c *models.ProviderCredential) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	for i, existing := range r.credentials {
		if existing.TenantID == c.TenantID && existing.Provider == c.Provider {
			cp := *c
			r.credentials[i] = &cp
			return
		}
	}
	cp := *c
	r.credentials = append(r.credentials, &cp)
}

// GetActive retrieves the active credential for a (tenant, provider) pair.
func (r *MemoryCredentialRepository) GetActive(ctx context.Context, tenantID, provider string) (*models.ProviderCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.credentials {
		if c.TenantID == tenantID && c.Provider == provider && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// GetDefault retrieves the system-wide default credential for a provider.
func (r *MemoryCredentialRepository) GetDefault(ctx context.Context, provider string) (*models.ProviderCredential, error) {
	return r.GetActive(ctx, "", provider)
}
