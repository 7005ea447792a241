// Package dispatch implements the outbound email dispatch orchestrator.
package dispatch

import "fmt"

// ErrorKind classifies a dispatch failure for logging and metrics. The HTTP
// boundary never maps kinds back to transport-level status codes; every kind
// travels to the caller inside the structured result envelope.
type ErrorKind string

const (
	// KindValidation means a required request field was absent. No record is
	// created.
	KindValidation ErrorKind = "validation"
	// KindCredentialMissing means no usable provider configuration was found
	// for the tenant or system-wide.
	KindCredentialMissing ErrorKind = "credential_missing"
	// KindPersistence means the message record could not be created. Fatal:
	// nothing is ever transmitted without a record.
	KindPersistence ErrorKind = "persistence"
	// KindTransport means the transport adapter reported a failure. The
	// message record is marked failed.
	KindTransport ErrorKind = "transport"
	// KindInternal covers unexpected failures converted to the envelope at
	// the orchestrator boundary.
	KindInternal ErrorKind = "internal"
)

// Error is a kinded dispatch failure. Message is written to be shown to the
// caller verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// Credential-missing messages are provider-specific and user-actionable; the
// UI presents them verbatim.
func credentialMissingError(provider string) *Error {
	var msg string
	switch provider {
	case "sendgrid":
		msg = "SendGrid API key not configured. Add a SendGrid key under Settings > Email Providers."
	case "smtp":
		msg = "SMTP server not configured. Add your SMTP host, port and login under Settings > Email Providers."
	case "ses":
		msg = "AWS SES access keys not configured. Add your SES region and key pair under Settings > Email Providers."
	default:
		msg = fmt.Sprintf("No sending credentials configured for provider %q.", provider)
	}
	return newError(KindCredentialMissing, msg)
}
