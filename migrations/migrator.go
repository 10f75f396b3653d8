package migrations

import (
	"database/sql"
	"strings"

	migrate "github.com/rubenv/sql-migrate"
)

const (
	// The applied-migration bookkeeping lives in its own table so the index
	// schema stays free of tool-owned rows.
	migrationTableName = "pkgvault_migrations"
	dialect            = "postgres"
)

func init() {
	migrate.SetTable(migrationTableName)
}

// migrator applies the known migrations to a database handle.
type migrator struct {
	db  *sql.DB
	src migrate.MigrationSource
}

// NewMigrator builds a migrator for db over the full set of known migrations.
func NewMigrator(db *sql.DB) *migrator {
	return &migrator{
		db:  db,
		src: &migrate.MemoryMigrationSource{Migrations: allMigrations},
	}
}

// migrationVersion extracts the version prefix from a migration ID of the
// form `<version>_<name>`.
func migrationVersion(id string) string {
	return strings.Split(id, "_")[0]
}

// Version returns the version of the most recently applied migration, or the
// empty string when none have been applied.
func (m *migrator) Version() (string, error) {
	records, err := migrate.GetMigrationRecords(m.db, dialect)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}

	return migrationVersion(records[len(records)-1].Id), nil
}

// LatestVersion returns the version of the newest known migration, whether
// applied or not.
func (m *migrator) LatestVersion() (string, error) {
	all, err := m.src.FindMigrations()
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", nil
	}

	return migrationVersion(all[len(all)-1].Id), nil
}

func (m *migrator) migrate(direction migrate.MigrationDirection) error {
	_, err := migrate.ExecMax(m.db, dialect, m.src, direction, 0)
	return err
}

// Up applies all pending migrations.
func (m *migrator) Up() error {
	return m.migrate(migrate.Up)
}

// Down reverts all applied migrations.
func (m *migrator) Down() error {
	return m.migrate(migrate.Down)
}
