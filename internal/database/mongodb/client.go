// Package mongodb is the document-store backend for the message store.
// Deployments that keep dispatch history in MongoDB instead of PostgreSQL
// get the same repository interfaces through the adapters in this package.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client owns the driver connection and hands out collection handles to
// the repositories.
type Client struct {
	mu       sync.RWMutex
	client   *mongo.Client
	database *mongo.Database
	cfg      Config
	logger   *slog.Logger
	closed   bool
}

// New connects and pings the primary, retrying with exponential backoff
// up to cfg.MaxRetries times.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "mongodb")),
	}
	if err := c.connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(ctx context.Context) error {
	opts := options.Client().
		ApplyURI(c.cfg.URI).
		SetMinPoolSize(c.cfg.MinPoolSize).
		SetMaxPoolSize(c.cfg.MaxPoolSize).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetSocketTimeout(c.cfg.SocketTimeout).
		SetServerSelectionTimeout(c.cfg.ServerSelectionTimeout).
		SetRetryWrites(c.cfg.RetryWrites).
		SetRetryReads(c.cfg.RetryReads)

	backoff := c.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying connection",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return fmt.Errorf("mongodb: connect cancelled: %w", ctx.Err())
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > c.cfg.MaxRetryBackoff {
				backoff = c.cfg.MaxRetryBackoff
			}
		}

		client, err := mongo.Connect(ctx, opts)
		if err != nil {
			lastErr = err
			continue
		}
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			lastErr = err
			_ = client.Disconnect(ctx)
			continue
		}

		c.client = client
		c.database = client.Database(c.cfg.Database)
		c.logger.Info("connected", slog.String("database", c.cfg.Database))
		return nil
	}

	return fmt.Errorf("mongodb: connect failed after %d attempt(s): %w",
		c.cfg.MaxRetries+1, lastErr)
}

// Database returns the handle for the configured database.
func (c *Client) Database() *mongo.Database {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.database
}

// Close disconnects. Safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.client == nil {
		c.closed = true
		return nil
	}

	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: disconnect: %w", err)
	}
	c.closed = true
	c.client = nil
	c.database = nil
	c.logger.Info("disconnected")
	return nil
}

// IsClosed reports whether Close completed; repositories refuse work on a
// closed client.
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
