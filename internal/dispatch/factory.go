package dispatch

import (
	"context"

	"github.com/leadwire/outbound/internal/database/models"
	"github.com/leadwire/outbound/internal/transport"
)

// SenderFactory builds a transport adapter from a resolved credential bundle.
// A nil or unusable bundle yields a credential-missing error with the
// provider-specific actionable text.
type SenderFactory interface {
	ForCredential(ctx context.Context, provider string, cred *models.ProviderCredential) (transport.Sender, error)
}

// KnownProvider reports whether a provider is served by a transport adapter.
// Unrecognized providers are handled entirely by upstream integrations; for
// those the dispatch attempt is vacuously successful.
func KnownProvider(provider string) bool {
	switch provider {
	case transport.ProviderSendGrid, transport.ProviderSMTP, transport.ProviderSES:
		return true
	default:
		return false
	}
}

// TransportFactory is the production SenderFactory over the adapters in the
// transport package.
type TransportFactory struct {
	// SESRegion is the AWS region used when a credential does not carry one.
	SESRegion string
	// SMTPClientName is the identity sent with EHLO.
	SMTPClientName string
}

// ForCredential builds the adapter for the provider, validating that the
// credential bundle carries the fields that transport needs.
func (f *TransportFactory) ForCredential(ctx context.Context, provider string, cred *models.ProviderCredential) (transport.Sender, error) {
	switch provider {
	case transport.ProviderSendGrid:
		if cred == nil || cred.APIKey == "" {
			return nil, credentialMissingError(provider)
		}
		return transport.NewSendGridSender(transport.SendGridConfig{APIKey: cred.APIKey})

	case transport.ProviderSMTP:
		if cred == nil || cred.Host == "" || cred.Port == 0 {
			return nil, credentialMissingError(provider)
		}
		return transport.NewSMTPSender(transport.SMTPConfig{
			Host:       cred.Host,
			Port:       cred.Port,
			Username:   cred.Username,
			Password:   cred.Password,
			ClientName: f.SMTPClientName,
		})

	case transport.ProviderSES:
		if cred == nil || cred.APIKey == "" || cred.APISecret == "" {
			return nil, credentialMissingError(provider)
		}
		region := cred.Host
		if region == "" {
			region = f.SESRegion
		}
		return transport.NewSESSender(ctx, transport.SESConfig{
			Region:          region,
			AccessKeyID:     cred.APIKey,
			SecretAccessKey: cred.APISecret,
		})

	default:
		return nil, credentialMissingError(provider)
	}
}
