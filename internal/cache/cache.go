// Package cache backs the credential read path: resolved provider
// credentials are small, read on every dispatch, and tolerate a short TTL.
// Values are stored as JSON so the redis and in-process backends are
// interchangeable.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheMiss reports a key that is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the store behind the credential resolver.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	Close() error
}

// Config selects and tunes a backend.
type Config struct {
	// Type is "memory" or "redis". Empty means memory.
	Type string

	// Redis settings.
	URL      string
	Password string
	DB       int

	// Prefix namespaces keys when the redis instance is shared.
	Prefix string

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration

	// MaxEntries caps the in-process backend. Zero means no cap.
	MaxEntries int
}

// New builds the configured backend.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case "memory", "":
		return NewMemoryCache(cfg), nil
	case "redis":
		return NewRedisCache(cfg)
	}
	return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
}
