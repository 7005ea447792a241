package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	sendgridBaseURL        = "https://api.sendgrid.com/v3"
	sendgridDefaultTimeout = 30 * time.Second
)

// SendGridConfig holds the configuration for the SendGrid relay adapter.
type SendGridConfig struct {
	APIKey         string
	TimeoutSeconds int
	BaseURL        string // Optional, defaults to the SendGrid API
}

// SendGridSender transmits messages through the SendGrid v3 mail send API.
type SendGridSender struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewSendGridSender creates a new SendGrid relay adapter.
func NewSendGridSender(cfg SendGridConfig) (*SendGridSender, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid: API key is required")
	}

	timeout := sendgridDefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	baseURL := sendgridBaseURL
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	return &SendGridSender{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}, nil
}

// Name returns the provider name.
func (s *SendGridSender) Name() string {
	return ProviderSendGrid
}

// Send performs a single POST to the relay's send endpoint. A non-2xx
// response is a transport failure carrying the response body as diagnostic
// text. The provider message identifier is read from the X-Message-Id
// response header.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) (string, error) {
	if msg == nil {
		return "", fmt.Errorf("sendgrid: message is required")
	}

	payload := sendgridMailRequest{
		Personalizations: []sendgridPersonalization{
			{To: []sendgridAddress{{Email: msg.To}}},
		},
		From:    sendgridAddress{Email: msg.FromEmail, Name: msg.FromName},
		Subject: msg.Subject,
		Content: []sendgridContent{
			{Type: "text/html", Value: msg.HTML},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("sendgrid: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/mail/send", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sendgrid: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sendgrid: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		diag, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, string(diag))
	}

	return resp.Header.Get("X-Message-Id"), nil
}

// Request types for the SendGrid v3 mail send API.

type sendgridMailRequest struct {
	Personalizations []sendgridPersonalization `json:"personalizations"`
	From             sendgridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendgridContent         `json:"content"`
}

type sendgridPersonalization struct {
	To []sendgridAddress `json:"to"`
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
