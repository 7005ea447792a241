// Package auth provides JWT authentication and tenant identity extraction
// for the outbound API.
package auth

import "errors"

var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is split out so handlers can hint at re-authentication.
	ErrExpiredToken = errors.New("token has expired")

	ErrInvalidIssuer   = errors.New("invalid token issuer")
	ErrInvalidAudience = errors.New("invalid token audience")
	ErrMissingToken    = errors.New("missing authentication token")

	// ErrMissingTenant rejects valid tokens without a tenant claim. Every
	// API caller acts on behalf of exactly one tenant.
	ErrMissingTenant = errors.New("token carries no tenant")

	// JWKS and key-configuration failures.
	ErrKeyNotFound           = errors.New("signing key not found")
	ErrUnsupportedAlgorithm  = errors.New("unsupported signing algorithm")
	ErrNoSecretConfigured    = errors.New("no secret configured for symmetric algorithm")
	ErrNoPublicKeyConfigured = errors.New("no public key configured for asymmetric algorithm")
	ErrJWKSFetchFailed       = errors.New("failed to fetch JWKS")
	ErrJWKSDecodeFailed      = errors.New("failed to decode JWKS")
)
