package dispatch

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/database/repository"
	"github.com/leadwire/outbound/internal/tracking"
	"github.com/leadwire/outbound/internal/transport"
	"github.com/leadwire/outbound/pkg/metrics"
)

// SendRequest is one dispatch invocation. The caller identity has already
// been authenticated; TenantID is taken from the verified identity, never
// from the payload.
type SendRequest struct {
	TenantID    string
	LeadID      string
	ToEmail     string
	FromEmail   string
	Subject     string
	HTMLBody    string
	Provider    string
	TrackOpens  bool
	TrackClicks bool
}

// SendResult is the structured envelope returned for every invocation,
// success or failure. Callers inspect Success rather than any transport-level
// status.
type SendResult struct {
	Success           bool
	MessageID         string
	ProviderMessageID string
	Error             string
}

// Service orchestrates a dispatch: validate, resolve credentials, persist the
// message record, extract and instrument links, transmit, and persist the
// outcome. Each invocation is stateless and strictly sequential.
type Service struct {
	messages     repository.MessageRepo
	links        repository.LinkRepo
	resolver     *Resolver
	factory      SenderFactory
	instrumenter *tracking.Instrumenter
	metrics      *metrics.Registry
	logger       *slog.Logger
}

// NewService creates a new dispatch service.
func NewService(
	repos *repository.Repositories,
	factory SenderFactory,
	instrumenter *tracking.Instrumenter,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		messages:     repos.Messages,
		links:        repos.Links,
		resolver:     NewResolver(repos.Credentials, logger),
		factory:      factory,
		instrumenter: instrumenter,
		metrics:      metrics.Global(),
		logger:       logger.With("component", "dispatch"),
	}
}

// SendMessage performs one dispatch to completion. It always returns a
// well-formed result; unexpected failures are converted to the envelope at
// this boundary rather than allowed to escape.
func (s *Service) SendMessage(ctx context.Context, req *SendRequest) (result *SendResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panicked", "panic", fmt.Sprint(r))
			result = &SendResult{Success: false, Error: "internal error"}
		}
		status := "sent"
		if result != nil && !result.Success {
			status = "failed"
		}
		s.metrics.Dispatch().RecordSend(req.Provider, status, time.Since(start).Seconds())
	}()

	if req.Provider == "" {
		req.Provider = transport.ProviderSendGrid
	}

	if req.ToEmail == "" || req.Subject == "" || req.HTMLBody == "" {
		return &SendResult{Success: false, Error: newError(KindValidation, "to_email, subject and html_body are required").Message}
	}

	cred, err := s.resolver.Resolve(ctx, req.TenantID, req.Provider)
	if err != nil {
		s.logger.Warn("credential lookup failed", "tenant_id", req.TenantID, "provider", req.Provider, "error", err)
		cred = nil
	}

	msg := models.NewEmailMessage(req.TenantID, req.Provider, req.Subject, req.ToEmail, s.resolveFrom(req, cred))
	msg.TrackOpens = req.TrackOpens
	msg.TrackClicks = req.TrackClicks
	if req.LeadID != "" {
		msg.LeadID = sql.NullString{String: req.LeadID, Valid: true}
	}

	// No message is ever transmitted without first being recorded.
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Error("message record creation failed", "tenant_id", req.TenantID, "error", err)
		return &SendResult{Success: false, Error: wrapError(KindPersistence, "failed to record message", err).Message}
	}

	log := s.logger.With("message_id", msg.ID, "tenant_id", req.TenantID, "provider", req.Provider)

	body := req.HTMLBody
	var tracked []tracking.TrackedLink
	if req.TrackClicks && s.instrumenter.Enabled() {
		tracked = s.persistLinks(ctx, msg.ID, body, log)
	}
	body = s.instrumenter.Instrument(body, msg.ID, tracked, req.TrackOpens, req.TrackClicks)

	// Providers without a transport adapter are handled entirely by an
	// upstream integration; the attempt is vacuously successful.
	if !KnownProvider(req.Provider) {
		log.Info("no transport for provider, accepting without transmission")
		return &SendResult{Success: true, MessageID: msg.ID}
	}

	sender, err := s.factory.ForCredential(ctx, req.Provider, cred)
	if err != nil {
		return s.failMessage(ctx, msg.ID, err, log)
	}

	callStart := time.Now()
	providerID, err := sender.Send(ctx, &transport.Message{
		To:        msg.ToEmail,
		FromEmail: msg.FromEmail,
		FromName:  s.fromName(cred),
		Subject:   msg.Subject,
		HTML:      body,
	})
	s.metrics.Transport().RecordCall(req.Provider, err, time.Since(callStart).Seconds())
	if err != nil {
		return s.failMessage(ctx, msg.ID, wrapError(KindTransport, err.Error(), err), log)
	}

	if providerID != "" {
		if err := s.messages.SetProviderMessageID(ctx, msg.ID, providerID); err != nil {
			log.Warn("failed to attach provider message id", "error", err)
		}
	}

	log.Info("message dispatched", "provider_message_id", providerID)
	return &SendResult{Success: true, MessageID: msg.ID, ProviderMessageID: providerID}
}

// persistLinks extracts the body's qualifying anchors and persists them in
// one batch before any transmission attempt, so link identifiers exist before
// the body referencing them is rewritten. A persistence failure downgrades
// the send to un-instrumented rather than failing it.
func (s *Service) persistLinks(ctx context.Context, messageID, body string, log *slog.Logger) []tracking.TrackedLink {
	extracted := tracking.ExtractLinks(body)
	if len(extracted) == 0 {
		return nil
	}

	rows := make([]*models.EmailLink, len(extracted))
	for i, l := range extracted {
		rows[i] = &models.EmailLink{
			MessageID: messageID,
			URL:       l.URL,
			Label:     l.Label,
			Position:  l.Position,
		}
	}
	if err := s.links.CreateBatch(ctx, rows); err != nil {
		log.Warn("link persistence failed, sending without click tracking", "error", err)
		return nil
	}

	s.metrics.Dispatch().RecordLinks(len(rows))

	tracked := make([]tracking.TrackedLink, len(rows))
	for i, row := range rows {
		tracked[i] = tracking.TrackedLink{ID: row.ID, URL: row.URL, Position: row.Position}
	}
	return tracked
}

// failMessage marks the record failed and builds the failure envelope. The
// record is always left in a terminal, inspectable state.
func (s *Service) failMessage(ctx context.Context, messageID string, cause error, log *slog.Logger) *SendResult {
	log.Warn("dispatch failed", "error", cause)
	if err := s.messages.MarkFailed(ctx, messageID, cause.Error()); err != nil {
		log.Error("failed to mark message failed", "error", err)
	}
	return &SendResult{Success: false, MessageID: messageID, Error: cause.Error()}
}

// resolveFrom picks the effective sender address: explicit override, then the
// credential's configured default, then the transport username.
func (s *Service) resolveFrom(req *SendRequest, cred *models.ProviderCredential) string {
	if req.FromEmail != "" {
		return req.FromEmail
	}
	if cred != nil {
		if cred.FromEmail != "" {
			return cred.FromEmail
		}
		if cred.Username != "" {
			return cred.Username
		}
	}
	return ""
}

func (s *Service) fromName(cred *models.ProviderCredential) string {
	if cred != nil {
		return cred.FromName
	}
	return ""
}
