// Package hooks builds shutdown hooks for the connections the dispatch
// service holds open.
package hooks

import (
	"context"
	"time"

	"github.com/leadwire/outbound/internal/shutdown"
)

// Closer is any connection with a plain Close.
type Closer interface {
	Close() error
}

// HTTPServer is a server that drains in-flight requests on Shutdown.
type HTTPServer interface {
	Shutdown(ctx context.Context) error
}

// HTTPServerShutdown drains the API server first, bounded by drainTimeout,
// so no dispatch request observes a half-closed store.
func HTTPServerShutdown(server HTTPServer, drainTimeout time.Duration) shutdown.Hook {
	return shutdown.Hook{
		Name:     "http-server",
		Priority: shutdown.PriorityHTTPServer,
		Fn: func(ctx context.Context) error {
			drainCtx, cancel := context.WithTimeout(ctx, drainTimeout)
			defer cancel()
			return server.Shutdown(drainCtx)
		},
	}
}

// DatabaseShutdown closes the message store once the server has drained.
func DatabaseShutdown(name string, db Closer) shutdown.Hook {
	return shutdown.Hook{
		Name:     name,
		Priority: shutdown.PriorityDatabase,
		Fn: func(ctx context.Context) error {
			return db.Close()
		},
	}
}

// CacheShutdown closes the credential cache.
func CacheShutdown(name string, cache Closer) shutdown.Hook {
	return shutdown.Hook{
		Name:     name,
		Priority: shutdown.PriorityCache,
		Fn: func(ctx context.Context) error {
			return cache.Close()
		},
	}
}

// RedisShutdown closes the shared redis client behind the rate limiter.
func RedisShutdown(client Closer) shutdown.Hook {
	return shutdown.Hook{
		Name:     "redis",
		Priority: shutdown.PriorityCache,
		Fn: func(ctx context.Context) error {
			return client.Close()
		},
	}
}
