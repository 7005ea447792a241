// Package transport contains the wire-level adapters the dispatch engine
// transmits through: an HTTP relay API, a direct SMTP session, and AWS SES.
package transport

import "context"

// Provider names the dispatch engine routes on.
const (
	ProviderSendGrid = "sendgrid"
	ProviderSMTP     = "smtp"
	ProviderSES      = "ses"
)

// Message is a fully instrumented message ready for transmission.
type Message struct {
	To        string
	FromEmail string
	FromName  string
	Subject   string
	HTML      string
}

// Sender transmits one message and returns the provider-assigned message
// identifier, when the provider reports one. Adapters perform no retries;
// a failed attempt is returned as an error carrying the provider's
// diagnostic text.
type Sender interface {
	// Name returns the provider name this adapter serves.
	Name() string

	// Send transmits the message. The context bounds the whole attempt;
	// cancellation aborts the underlying connection or request promptly.
	Send(ctx context.Context, msg *Message) (providerMessageID string, err error)
}
