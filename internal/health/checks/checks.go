// Package checks holds the dependency probes the dispatch service
// registers with the health registry.
package checks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leadwire/outbound/internal/health"
)

// Pinger is satisfied by anything with a connectivity probe, including
// the go-redis client behind the credential cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseChecker pings the message store. The database holds messages,
// credentials and events, so it defaults to critical.
type DatabaseChecker struct {
	db       *sql.DB
	timeout  time.Duration
	severity health.Severity
}

type DatabaseOption func(*DatabaseChecker)

func WithDatabaseTimeout(d time.Duration) DatabaseOption {
	return func(c *DatabaseChecker) { c.timeout = d }
}

func WithDatabaseSeverity(s health.Severity) DatabaseOption {
	return func(c *DatabaseChecker) { c.severity = s }
}

func NewDatabaseChecker(db *sql.DB, opts ...DatabaseOption) *DatabaseChecker {
	c := &DatabaseChecker{
		db:       db,
		timeout:  2 * time.Second,
		severity: health.SeverityCritical,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DatabaseChecker) Name() string              { return "database" }
func (c *DatabaseChecker) Severity() health.Severity { return c.severity }

func (c *DatabaseChecker) Check(ctx context.Context) health.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.db.PingContext(ctx); err != nil {
		return health.CheckResult{
			Status:  health.StatusUnhealthy,
			Message: fmt.Sprintf("ping: %v", err),
		}
	}

	stats := c.db.Stats()
	return health.CheckResult{
		Status: health.StatusHealthy,
		Details: map[string]any{
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
			"idle":             stats.Idle,
		},
	}
}

// CacheChecker pings the credential cache. Dispatch survives a cache
// outage by reading credentials from the database, so callers usually
// register it with WithCacheSeverity(health.SeverityWarning).
type CacheChecker struct {
	cache    Pinger
	timeout  time.Duration
	severity health.Severity
}

type CacheOption func(*CacheChecker)

func WithCacheTimeout(d time.Duration) CacheOption {
	return func(c *CacheChecker) { c.timeout = d }
}

func WithCacheSeverity(s health.Severity) CacheOption {
	return func(c *CacheChecker) { c.severity = s }
}

func NewCacheChecker(cache Pinger, opts ...CacheOption) *CacheChecker {
	c := &CacheChecker{
		cache:    cache,
		timeout:  time.Second,
		severity: health.SeverityCritical,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CacheChecker) Name() string              { return "cache" }
func (c *CacheChecker) Severity() health.Severity { return c.severity }

func (c *CacheChecker) Check(ctx context.Context) health.CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.cache.Ping(ctx); err != nil {
		return health.CheckResult{
			Status:  health.StatusUnhealthy,
			Message: fmt.Sprintf("ping: %v", err),
		}
	}
	return health.CheckResult{Status: health.StatusHealthy}
}

// CustomChecker wraps a plain function, for probes like dispatch queue
// depth that have no dedicated type.
type CustomChecker struct {
	name     string
	fn       func(ctx context.Context) health.CheckResult
	severity health.Severity
}

type CustomOption func(*CustomChecker)

func WithCustomSeverity(s health.Severity) CustomOption {
	return func(c *CustomChecker) { c.severity = s }
}

func NewCustomChecker(name string, fn func(ctx context.Context) health.CheckResult, opts ...CustomOption) *CustomChecker {
	c := &CustomChecker{
		name:     name,
		fn:       fn,
		severity: health.SeverityWarning,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CustomChecker) Name() string              { return c.name }
func (c *CustomChecker) Severity() health.Severity { return c.severity }

func (c *CustomChecker) Check(ctx context.Context) health.CheckResult {
	return c.fn(ctx)
}
