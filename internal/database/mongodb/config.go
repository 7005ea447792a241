package mongodb

import (
	"fmt"
	"time"
)

// Config tunes the driver connection used by the document-store backend.
type Config struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string

	// Database holds the dispatch collections.
	Database string

	// Pool bounds.
	MinPoolSize uint64
	MaxPoolSize uint64

	// Driver timeouts.
	ConnectTimeout         time.Duration
	SocketTimeout          time.Duration
	ServerSelectionTimeout time.Duration

	// Driver-level retries for transient server errors.
	RetryWrites bool
	RetryReads  bool

	// Connect-time retry policy, on top of the driver's own retries.
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig suits a single dispatch node against a local replica set.
func DefaultConfig() Config {
	return Config{
		URI:                    "mongodb://localhost:27017",
		Database:               "outbound",
		MinPoolSize:            5,
		MaxPoolSize:            100,
		ConnectTimeout:         10 * time.Second,
		SocketTimeout:          30 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		RetryWrites:            true,
		RetryReads:             true,
		MaxRetries:             3,
		RetryBackoff:           100 * time.Millisecond,
		MaxRetryBackoff:        5 * time.Second,
	}
}

// Validate rejects configurations the driver would accept but that cannot
// work in practice.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("mongodb: URI is required")
	}
	if c.Database == "" {
		return fmt.Errorf("mongodb: database name is required")
	}
	if c.MinPoolSize > c.MaxPoolSize {
		return fmt.Errorf("mongodb: min pool size %d exceeds max %d", c.MinPoolSize, c.MaxPoolSize)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("mongodb: max retries cannot be negative")
	}
	return nil
}
