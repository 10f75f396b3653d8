package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// PackageReader is the interface that defines read operations for a package store.
type PackageReader interface {
	FindAll(ctx context.Context) (models.Packages, error)
	FindByID(ctx context.Context, id int64) (*models.Package, error)
	FindByName(ctx context.Context, name string) (*models.Package, error)
	Count(ctx context.Context) (int, error)
	Releases(ctx context.Context, p *models.Package) (models.Releases, error)
}

// PackageWriter is the interface that defines write operations for a package store.
type PackageWriter interface {
	Create(ctx context.Context, p *models.Package) error
	Update(ctx context.Context, p *models.Package) error
}

// PackageStore is the interface that a package store should conform to.
type PackageStore interface {
	PackageReader
	PackageWriter
}

// packageStore is the concrete implementation of a PackageStore.
type packageStore struct {
	// db can be either a *sql.DB or *sql.Tx
	db Queryer
}

// NewPackageStore builds a new packageStore.
func NewPackageStore(db Queryer) PackageStore {
	return &packageStore{db: db}
}

func (s *packageStore) scanFullPackage(ctx context.Context, row *sql.Row) (*models.Package, error) {
	p := new(models.Package)

	if err := row.Scan(&p.ID, &p.Name, &p.AllowAuthenticated, &p.Created); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("error scanning package: %w", err)
		}
		return nil, nil
	}

	if err := s.loadAccessLists(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// loadAccessLists materializes the owner, maintainer and download-permission
// sets for a package. The permission evaluator operates on these sets rather
// than on queries.
func (s *packageStore) loadAccessLists(ctx context.Context, p *models.Package) error {
	for _, rel := range []struct {
		query string
		dest  *[]string
	}{
		{"SELECT user_name FROM package_owners WHERE package_id = $1 ORDER BY user_name", &p.Owners},
		{"SELECT group_name FROM package_owner_groups WHERE package_id = $1 ORDER BY group_name", &p.GroupOwners},
		{"SELECT group_name FROM package_maintainer_groups WHERE package_id = $1 ORDER BY group_name", &p.GroupMaintainers},
		{"SELECT group_name FROM package_download_groups WHERE package_id = $1 ORDER BY group_name", &p.DownloadGroups},
	} {
		rows, err := s.db.QueryContext(ctx, rel.query, p.ID)
		if err != nil {
			return fmt.Errorf("error finding package access lists: %w", err)
		}

		var names []string
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("error scanning package access list: %w", err)
			}
			names = append(names, name)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error scanning package access lists: %w", err)
		}
		rows.Close()

		*rel.dest = names
	}

	return nil
}

func (s *packageStore) replaceAccessList(ctx context.Context, table, column string, packageID int64, names []string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE package_id = $1", table)
	if _, err := s.db.ExecContext(ctx, q, packageID); err != nil {
		return fmt.Errorf("error clearing package access list: %w", err)
	}

	q = fmt.Sprintf("INSERT INTO %s (package_id, %s) VALUES ($1, $2)", table, column)
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, q, packageID, name); err != nil {
			return fmt.Errorf("error writing package access list: %w", err)
		}
	}

	return nil
}

// FindByID finds a package by ID.
func (s *packageStore) FindByID(ctx context.Context, id int64) (*models.Package, error) {
	q := "SELECT id, name, allow_authenticated, created_at FROM packages WHERE id = $1"
	row := s.db.QueryRowContext(ctx, q, id)

	return s.scanFullPackage(ctx, row)
}

// FindByName finds a package by name. Package names are case-sensitive.
func (s *packageStore) FindByName(ctx context.Context, name string) (*models.Package, error) {
	q := "SELECT id, name, allow_authenticated, created_at FROM packages WHERE name = $1"
	row := s.db.QueryRowContext(ctx, q, name)

	return s.scanFullPackage(ctx, row)
}

// FindAll finds all packages, ordered by name.
func (s *packageStore) FindAll(ctx context.Context) (models.Packages, error) {
	q := "SELECT id, name, allow_authenticated, created_at FROM packages ORDER BY name"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error finding packages: %w", err)
	}
	defer rows.Close()

	pp := make(models.Packages, 0)
	for rows.Next() {
		p := new(models.Package)
		if err := rows.Scan(&p.ID, &p.Name, &p.AllowAuthenticated, &p.Created); err != nil {
			return nil, fmt.Errorf("error scanning package: %w", err)
		}
		pp = append(pp, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning packages: %w", err)
	}

	for _, p := range pp {
		if err := s.loadAccessLists(ctx, p); err != nil {
			return nil, err
		}
	}

	return pp, nil
}

// Count counts all packages.
func (s *packageStore) Count(ctx context.Context) (int, error) {
	q := "SELECT COUNT(*) FROM packages"
	var count int

	if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return count, fmt.Errorf("error counting packages: %w", err)
	}

	return count, nil
}

// Releases finds all releases of a package, ordered by version.
func (s *packageStore) Releases(ctx context.Context, p *models.Package) (models.Releases, error) {
	q := `SELECT id, package_id, version, metadata_version, hidden, info, created_at
		FROM releases WHERE package_id = $1 ORDER BY version`
	rows, err := s.db.QueryContext(ctx, q, p.ID)
	if err != nil {
		return nil, fmt.Errorf("error finding releases: %w", err)
	}

	return scanFullReleases(rows)
}

// Create saves a new package and its access lists.
func (s *packageStore) Create(ctx context.Context, p *models.Package) error {
	q := `INSERT INTO packages (name, allow_authenticated) VALUES ($1, $2)
		RETURNING id, created_at`

	row := s.db.QueryRowContext(ctx, q, p.Name, p.AllowAuthenticated)
	if err := row.Scan(&p.ID, &p.Created); err != nil {
		if uniqueViolation(err, "unq_packages_name") {
			return ErrDuplicatePackageName
		}
		return fmt.Errorf("error creating package: %w", err)
	}

	return s.writeAccessLists(ctx, p)
}

// Update updates an existing package and replaces its access lists. The
// package name is immutable and not part of the update.
func (s *packageStore) Update(ctx context.Context, p *models.Package) error {
	q := "UPDATE packages SET allow_authenticated = $1 WHERE id = $2"

	res, err := s.db.ExecContext(ctx, q, p.AllowAuthenticated, p.ID)
	if err != nil {
		return fmt.Errorf("error updating package: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating package: %w", err)
	}
	if n == 0 {
		return ErrPackageNotFound
	}

	return s.writeAccessLists(ctx, p)
}

func (s *packageStore) writeAccessLists(ctx context.Context, p *models.Package) error {
	for _, rel := range []struct {
		table, column string
		names         []string
	}{
		{"package_owners", "user_name", p.Owners},
		{"package_owner_groups", "group_name", p.GroupOwners},
		{"package_maintainer_groups", "group_name", p.GroupMaintainers},
		{"package_download_groups", "group_name", p.DownloadGroups},
	} {
		if err := s.replaceAccessList(ctx, rel.table, rel.column, p.ID, rel.names); err != nil {
			return err
		}
	}

	return nil
}
