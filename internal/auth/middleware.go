package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const identityContextKey contextKey = "auth_identity"

// IdentityFromContext retrieves the authenticated identity from the request
// context. Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(identityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

// ContextWithIdentity returns a new context with the identity attached.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// Requirement specifies the authentication requirement for an endpoint.
type Requirement string

const (
	// AuthRequired requires a valid tenant-scoped token; returns 401 otherwise.
	AuthRequired Requirement = "required"
	// AuthOptional accepts requests with or without a token; invalid tokens are ignored.
	AuthOptional Requirement = "optional"
	// AuthPublic allows all requests without any token validation.
	AuthPublic Requirement = "public"
)

// Middleware validates bearer tokens and attaches the caller's identity to
// the request context. Authentication is the one concern allowed to answer
// with a transport-level error; every authenticated request downstream gets
// its outcome in the response envelope instead.
type Middleware struct {
	validator *Validator
}

// NewMiddleware creates a new authentication middleware with the given validator.
func NewMiddleware(validator *Validator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate returns middleware that enforces the specified requirement.
func (m *Middleware) Authenticate(requirement Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requirement == AuthPublic {
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r)

			if token == "" {
				if requirement == AuthRequired {
					writeJSONError(w, http.StatusUnauthorized, "authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			identity, err := m.validator.ValidateToken(r.Context(), token)
			if err == nil && identity.TenantID == "" {
				err = ErrMissingTenant
			}
			if err != nil {
				if requirement == AuthRequired {
					message := "invalid token"
					switch err {
					case ErrExpiredToken:
						message = "token has expired"
					case ErrInvalidIssuer:
						message = "invalid token issuer"
					case ErrInvalidAudience:
						message = "invalid token audience"
					case ErrMissingTenant:
						message = "token carries no tenant"
					}
					writeJSONError(w, http.StatusUnauthorized, message)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth is a convenience method that creates middleware requiring authentication.
func (m *Middleware) RequireAuth() func(http.Handler) http.Handler {
	return m.Authenticate(AuthRequired)
}

// OptionalAuth is a convenience method that creates middleware with optional authentication.
func (m *Middleware) OptionalAuth() func(http.Handler) http.Handler {
	return m.Authenticate(AuthOptional)
}

// RequireRole returns middleware that checks for a specific role.
// Must be used after Authenticate middleware.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			if identity == nil {
				writeJSONError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !identity.HasRole(role) {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ExtractToken extracts the JWT from a request. It checks the Authorization
// header (Bearer token), then the token cookie.
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}

	return ""
}

// errorResponse represents a JSON error response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}
