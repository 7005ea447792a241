// Package setup wires a configured backend to the message, link and
// credential repositories. It sits above database, mongodb and repository
// so none of them import each other.
package setup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leadwire/outbound/internal/database"
	"github.com/leadwire/outbound/internal/database/mongodb"
	"github.com/leadwire/outbound/internal/database/repository"
)

// Connection is an open backend plus its repository set. DB and
// MongoClient expose the raw handle of whichever backend is live; the
// other returns nil.
type Connection interface {
	Type() database.DatabaseType
	Close() error
	Ping() error
	Repositories() *repository.Repositories
	DB() *sql.DB
	MongoClient() *mongodb.Client
}

// NewConnection opens the backend named by cfg.Type.
func NewConnection(cfg database.DatabaseConfig) (Connection, error) {
	return NewConnectionWithLogger(cfg, nil)
}

// NewConnectionWithLogger is NewConnection with an explicit logger for
// the backend's connection lifecycle messages.
func NewConnectionWithLogger(cfg database.DatabaseConfig, logger *slog.Logger) (Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Type {
	case database.DatabaseTypePostgres:
		return newPostgresConnection(cfg.Postgres)
	case database.DatabaseTypeMongoDB:
		return newMongoConnection(cfg.MongoDB, logger)
	}
	return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
}

// MustNewConnection panics on connection failure; used by tooling that
// cannot proceed without a store.
func MustNewConnection(cfg database.DatabaseConfig) Connection {
	conn, err := NewConnection(cfg)
	if err != nil {
		panic(fmt.Sprintf("database connection: %v", err))
	}
	return conn
}

type postgresConnection struct {
	db    *sql.DB
	repos *repository.Repositories
}

func newPostgresConnection(cfg *database.PostgresConfig) (*postgresConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres configuration is required")
	}

	db, err := database.Connect(database.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		User:     cfg.User,
		Password: cfg.Password,
		SSLMode:  cfg.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &postgresConnection{
		db: db,
		repos: &repository.Repositories{
			Messages:    repository.NewMessageRepository(db),
			Links:       repository.NewLinkRepository(db),
			Credentials: repository.NewCredentialRepository(db),
		},
	}, nil
}

func (c *postgresConnection) Type() database.DatabaseType           { return database.DatabaseTypePostgres }
func (c *postgresConnection) Close() error                          { return database.Close(c.db) }
func (c *postgresConnection) Ping() error                           { return database.Ping(c.db) }
func (c *postgresConnection) Repositories() *repository.Repositories { return c.repos }
func (c *postgresConnection) DB() *sql.DB                           { return c.db }
func (c *postgresConnection) MongoClient() *mongodb.Client          { return nil }

type mongoConnection struct {
	client *mongodb.Client
	repos  *repository.Repositories
}

func newMongoConnection(cfg *database.MongoDBConfig, logger *slog.Logger) (*mongoConnection, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongodb configuration is required")
	}

	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = cfg.URI
	mongoCfg.Database = cfg.Database

	client, err := mongodb.New(context.Background(), mongoCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	return &mongoConnection{
		client: client,
		repos: &repository.Repositories{
			Messages:    mongodb.NewMessageAdapter(client, logger),
			Links:       mongodb.NewLinkAdapter(client, logger),
			Credentials: mongodb.NewCredentialAdapter(client, logger),
		},
	}, nil
}

func (c *mongoConnection) Type() database.DatabaseType { return database.DatabaseTypeMongoDB }

func (c *mongoConnection) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close(context.Background())
}

func (c *mongoConnection) Ping() error {
	if c.client == nil {
		return nil
	}
	return c.client.Database().Client().Ping(context.Background(), nil)
}

func (c *mongoConnection) Repositories() *repository.Repositories { return c.repos }
func (c *mongoConnection) DB() *sql.DB                            { return nil }
func (c *mongoConnection) MongoClient() *mongodb.Client           { return c.client }
