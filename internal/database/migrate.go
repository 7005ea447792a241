package database

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration files are named NNNN_description.up.sql / NNNN_description.down.sql
// and applied in version order.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration pairs the up and down SQL for one schema version. AppliedAt
// is nil while the migration is pending.
type Migration struct {
	Version   string
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt *time.Time
}

// Migrator applies the embedded migrations and tracks them in the
// schema_migrations table.
type Migrator struct {
	db *sql.DB
}

func NewMigrator(db *sql.DB) *Migrator {
	return &Migrator{db: db}
}

// MigrateUp applies every pending migration in version order.
func (m *Migrator) MigrateUp() error {
	migrations, applied, err := m.plan()
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if _, done := applied[mig.Version]; done {
			continue
		}
		if err := m.apply(mig.Version, mig.UpSQL,
			"INSERT INTO schema_migrations (version) VALUES ($1)"); err != nil {
			return fmt.Errorf("migration %s: %w", mig.Version, err)
		}
	}
	return nil
}

// MigrateDown rolls back the most recently applied migration. A fully
// rolled-back database is not an error.
func (m *Migrator) MigrateDown() error {
	migrations, applied, err := m.plan()
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		return nil
	}

	var last string
	for version := range applied {
		if version > last {
			last = version
		}
	}

	for _, mig := range migrations {
		if mig.Version == last {
			if err := m.apply(mig.Version, mig.DownSQL,
				"DELETE FROM schema_migrations WHERE version = $1"); err != nil {
				return fmt.Errorf("rollback %s: %w", mig.Version, err)
			}
			return nil
		}
	}
	return fmt.Errorf("applied migration %s has no migration file", last)
}

// Status lists every known migration with its applied timestamp.
func (m *Migrator) Status() ([]Migration, error) {
	migrations, applied, err := m.plan()
	if err != nil {
		return nil, err
	}

	for i := range migrations {
		if at, ok := applied[migrations[i].Version]; ok {
			t := at
			migrations[i].AppliedAt = &t
		}
	}
	return migrations, nil
}

// plan loads the embedded migrations and the applied-version map.
func (m *Migrator) plan() ([]Migration, map[string]time.Time, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	if _, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return nil, nil, fmt.Errorf("ensuring schema_migrations: %w", err)
	}

	rows, err := m.db.Query("SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]time.Time)
	for rows.Next() {
		var version string
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, nil, err
		}
		applied[version] = at
	}
	return migrations, applied, rows.Err()
}

// apply runs one migration's SQL and the bookkeeping statement in a
// single transaction.
func (m *Migrator) apply(version, migrationSQL, bookkeeping string) error {
	if migrationSQL == "" {
		return fmt.Errorf("missing SQL")
	}

	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migrationSQL); err != nil {
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		return err
	}
	return tx.Commit()
}

func loadMigrations() ([]Migration, error) {
	byVersion := make(map[string]*Migration)

	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		version, name, direction, ok := parseMigrationName(entry.Name())
		if !ok {
			continue
		}

		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, err
		}

		mig := byVersion[version]
		if mig == nil {
			mig = &Migration{Version: version, Name: name}
			byVersion[version] = mig
		}
		if direction == "up" {
			mig.UpSQL = string(content)
		} else {
			mig.DownSQL = string(content)
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

func parseMigrationName(filename string) (version, name, direction string, ok bool) {
	version, rest, found := strings.Cut(filename, "_")
	if !found {
		return "", "", "", false
	}
	switch {
	case strings.HasSuffix(rest, ".up.sql"):
		return version, strings.TrimSuffix(rest, ".up.sql"), "up", true
	case strings.HasSuffix(rest, ".down.sql"):
		return version, strings.TrimSuffix(rest, ".down.sql"), "down", true
	}
	return "", "", "", false
}
