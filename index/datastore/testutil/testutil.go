package testutil

import (
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/datastore"
)

// table represents a table in the test database.
type table string

const (
	PackagesTable                table = "packages"
	PackageOwnersTable           table = "package_owners"
	PackageOwnerGroupsTable      table = "package_owner_groups"
	PackageMaintainerGroupsTable table = "package_maintainer_groups"
	PackageDownloadGroupsTable   table = "package_download_groups"
	ReleasesTable                table = "releases"
	DistributionsTable           table = "distributions"
)

// AllTables represents all tables in the test database.
var AllTables = []table{
	PackagesTable,
	PackageOwnersTable,
	PackageOwnerGroupsTable,
	PackageMaintainerGroupsTable,
	PackageDownloadGroupsTable,
	ReleasesTable,
	DistributionsTable,
}

// truncate truncates t in the test database.
func (t table) truncate(db *datastore.DB) error {
	if _, err := db.Exec(fmt.Sprintf("TRUNCATE %s RESTART IDENTITY CASCADE", t)); err != nil {
		return fmt.Errorf("error truncating table %q: %w", t, err)
	}
	return nil
}

// NewDSN generates a new DSN for the test database based on environment variable configurations.
func NewDSN() (*datastore.DSN, error) {
	port, err := strconv.Atoi(os.Getenv("PKGVAULT_DATABASE_PORT"))
	if err != nil {
		return nil, fmt.Errorf("error parsing DSN port: %w", err)
	}
	dsn := &datastore.DSN{
		Host:     os.Getenv("PKGVAULT_DATABASE_HOST"),
		Port:     port,
		User:     os.Getenv("PKGVAULT_DATABASE_USER"),
		Password: os.Getenv("PKGVAULT_DATABASE_PASSWORD"),
		DBName:   "pkgvault_test",
		SSLMode:  os.Getenv("PKGVAULT_DATABASE_SSLMODE"),
	}

	return dsn, nil
}

// NewDB generates a new datastore.DB and opens the underlying connection.
func NewDB() (*datastore.DB, error) {
	dsn, err := NewDSN()
	if err != nil {
		return nil, err
	}

	db, err := datastore.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database connection: %w", err)
	}

	return db, nil
}

// TruncateTables truncates a set of tables in the test database.
func TruncateTables(db *datastore.DB, tables ...table) error {
	for _, table := range tables {
		if err := table.truncate(db); err != nil {
			return fmt.Errorf("error truncating tables: %w", err)
		}
	}
	return nil
}

// TruncateAllTables truncates all tables in the test database.
func TruncateAllTables(db *datastore.DB) error {
	return TruncateTables(db, AllTables...)
}

// ParseTimestamp parses a timestamp into a time.Time, matching a given location.
func ParseTimestamp(tb testing.TB, timestamp string, location *time.Location) time.Time {
	tb.Helper()

	t, err := time.Parse("2006-01-02 15:04:05.000000", timestamp)
	require.NoError(tb, err)

	return t.In(location)
}
