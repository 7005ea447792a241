// Package ratelimit enforces per-tenant fixed-window request limits on the
// dispatch API. Limits are enforced in a shared store so every instance sees
// the same counters; store failures fail open so a degraded Redis never
// blocks sending.
package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/leadwire/outbound/internal/auth"
)

// Policy defines a fixed-window rate limit for one endpoint group.
type Policy struct {
	// Name is a short identifier used in logs (e.g. "emails:send").
	Name   string
	Window time.Duration
	Limit  int
	// Key builds the bucket key for a request. Defaults to KeyTenantOrIP.
	Key func(r *http.Request) string
}

// Store abstracts a shared counter store for fixed-window limiting.
type Store interface {
	// Allow increments the counter for the key in the given window and
	// reports whether the request is allowed. When blocked, retryAfterSec
	// indicates seconds until the window resets.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, retryAfterSec int, err error)
}

// Middleware returns HTTP middleware enforcing the policy against the store.
// Store errors fail open: the request proceeds.
func Middleware(p Policy, store Store, logger *slog.Logger) func(http.Handler) http.Handler {
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	if p.Limit <= 0 {
		p.Limit = 60
	}
	if p.Key == nil {
		p.Key = KeyTenantOrIP(p.Name)
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "ratelimit", "endpoint", p.Name)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := p.Key(r)

			allowed, retryAfter, err := store.Allow(r.Context(), key, p.Limit, p.Window)
			if err != nil {
				log.Warn("rate limit store unavailable, failing open", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("rate limit exceeded",
				"key", key,
				"limit", p.Limit,
				"window", p.Window.String(),
				"retry_after", retryAfter,
			)
			if retryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
		})
	}
}

// KeyTenantOrIP buckets by the authenticated tenant when one is present and
// by the remote address otherwise. The prefix separates per-endpoint buckets.
func KeyTenantOrIP(prefix string) func(r *http.Request) string {
	return func(r *http.Request) string {
		if identity := auth.IdentityFromContext(r.Context()); identity != nil && identity.TenantID != "" {
			return prefix + ":ten:" + identity.TenantID
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		return prefix + ":ip:" + host
	}
}

// MemoryStore is a process-local Store for tests and single-instance
// deployments.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*memoryBucket
}

type memoryBucket struct {
	start time.Time
	count int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*memoryBucket)}
}

// Allow implements Store with a process-local fixed window.
func (s *MemoryStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.Sub(b.start) >= window {
		s.buckets[key] = &memoryBucket{start: now, count: 1}
		return true, 0, nil
	}
	if b.count < limit {
		b.count++
		return true, 0, nil
	}

	retryAfter := int((window - now.Sub(b.start) + time.Second - 1) / time.Second)
	return false, retryAfter, nil
}
