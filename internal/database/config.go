package database

import "strings"

// DatabaseType selects the message store backend.
type DatabaseType string

const (
	DatabaseTypePostgres DatabaseType = "postgres"
	DatabaseTypeMongoDB  DatabaseType = "mongodb"
)

func (dt DatabaseType) String() string {
	return string(dt)
}

// ParseDatabaseType maps user-facing spellings onto a DatabaseType.
// Anything unrecognized falls back to postgres, the default backend.
func ParseDatabaseType(s string) DatabaseType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mongodb", "mongo":
		return DatabaseTypeMongoDB
	default:
		return DatabaseTypePostgres
	}
}

// DatabaseConfig carries the settings for whichever backend is selected.
type DatabaseConfig struct {
	Type     DatabaseType
	Postgres *PostgresConfig
	MongoDB  *MongoDBConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

type MongoDBConfig struct {
	URI      string
	Database string
}
