package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// ReleaseReader is the interface that defines read operations for a release store.
type ReleaseReader interface {
	FindAll(ctx context.Context) (models.Releases, error)
	FindByID(ctx context.Context, id int64) (*models.Release, error)
	FindByVersion(ctx context.Context, p *models.Package, version string) (*models.Release, error)
	Count(ctx context.Context) (int, error)
	Package(ctx context.Context, r *models.Release) (*models.Package, error)
	Distributions(ctx context.Context, r *models.Release) (models.Distributions, error)
}

// ReleaseWriter is the interface that defines write operations for a release store.
type ReleaseWriter interface {
	Create(ctx context.Context, r *models.Release) error
	Update(ctx context.Context, r *models.Release) error
}

// ReleaseStore is the interface that a release store should conform to.
type ReleaseStore interface {
	ReleaseReader
	ReleaseWriter
}

// releaseStore is the concrete implementation of a ReleaseStore.
type releaseStore struct {
	db Queryer
}

// NewReleaseStore builds a new releaseStore.
func NewReleaseStore(db Queryer) ReleaseStore {
	return &releaseStore{db: db}
}

func scanFullRelease(row *sql.Row) (*models.Release, error) {
	r := new(models.Release)
	var info []byte

	if err := row.Scan(&r.ID, &r.PackageID, &r.Version, &r.MetadataVersion, &r.Hidden, &info, &r.Created); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("error scanning release: %w", err)
		}
		return nil, nil
	}

	if err := json.Unmarshal(info, &r.Info); err != nil {
		return nil, fmt.Errorf("error decoding release info: %w", err)
	}

	return r, nil
}

func scanFullReleases(rows *sql.Rows) (models.Releases, error) {
	rr := make(models.Releases, 0)
	defer rows.Close()

	for rows.Next() {
		r := new(models.Release)
		var info []byte
		if err := rows.Scan(&r.ID, &r.PackageID, &r.Version, &r.MetadataVersion, &r.Hidden, &info, &r.Created); err != nil {
			return nil, fmt.Errorf("error scanning release: %w", err)
		}
		if err := json.Unmarshal(info, &r.Info); err != nil {
			return nil, fmt.Errorf("error decoding release info: %w", err)
		}
		rr = append(rr, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning releases: %w", err)
	}

	return rr, nil
}

// FindByID finds a release by ID.
func (s *releaseStore) FindByID(ctx context.Context, id int64) (*models.Release, error) {
	q := `SELECT id, package_id, version, metadata_version, hidden, info, created_at
		FROM releases WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, id)

	return scanFullRelease(row)
}

// FindByVersion finds the release of a package with the given version string.
func (s *releaseStore) FindByVersion(ctx context.Context, p *models.Package, version string) (*models.Release, error) {
	q := `SELECT id, package_id, version, metadata_version, hidden, info, created_at
		FROM releases WHERE package_id = $1 AND version = $2`
	row := s.db.QueryRowContext(ctx, q, p.ID, version)

	return scanFullRelease(row)
}

// FindAll finds all releases, ordered by package name and then by version.
// Version ordering is lexicographic, callers needing semantic ordering must
// sort explicitly (see releases.SortByVersion).
func (s *releaseStore) FindAll(ctx context.Context) (models.Releases, error) {
	q := `SELECT r.id, r.package_id, r.version, r.metadata_version, r.hidden, r.info, r.created_at
		FROM releases AS r
		JOIN packages AS p ON p.id = r.package_id
		ORDER BY p.name, r.version`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error finding releases: %w", err)
	}

	return scanFullReleases(rows)
}

// Count counts all releases.
func (s *releaseStore) Count(ctx context.Context) (int, error) {
	q := "SELECT COUNT(*) FROM releases"
	var count int

	if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return count, fmt.Errorf("error counting releases: %w", err)
	}

	return count, nil
}

// Package finds the package that a release belongs to.
func (s *releaseStore) Package(ctx context.Context, r *models.Release) (*models.Package, error) {
	return NewPackageStore(s.db).FindByID(ctx, r.PackageID)
}

// Distributions finds all distributions attached to a release.
func (s *releaseStore) Distributions(ctx context.Context, r *models.Release) (models.Distributions, error) {
	q := `SELECT id, release_id, filetype, pyversion, path, md5_digest, size, comment, uploader, created_at
		FROM distributions WHERE release_id = $1 ORDER BY filetype, pyversion`
	rows, err := s.db.QueryContext(ctx, q, r.ID)
	if err != nil {
		return nil, fmt.Errorf("error finding distributions: %w", err)
	}

	return scanFullDistributions(rows)
}

// Create saves a new release. The (package, version) pair is unique, a
// conflicting concurrent insert resolves to ErrDuplicateVersion on the loser.
func (s *releaseStore) Create(ctx context.Context, r *models.Release) error {
	if r.Info == nil {
		r.Info = models.PackageInfo{}
	}
	info, err := json.Marshal(r.Info)
	if err != nil {
		return fmt.Errorf("error encoding release info: %w", err)
	}

	q := `INSERT INTO releases (package_id, version, metadata_version, hidden, info)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`

	row := s.db.QueryRowContext(ctx, q, r.PackageID, r.Version, r.MetadataVersion, r.Hidden, info)
	if err := row.Scan(&r.ID, &r.Created); err != nil {
		if uniqueViolation(err, "unq_releases_package_id_version") {
			return ErrDuplicateVersion
		}
		return fmt.Errorf("error creating release: %w", err)
	}

	return nil
}

// Update updates the mutable attributes of an existing release.
func (s *releaseStore) Update(ctx context.Context, r *models.Release) error {
	info, err := json.Marshal(r.Info)
	if err != nil {
		return fmt.Errorf("error encoding release info: %w", err)
	}

	q := `UPDATE releases SET (metadata_version, hidden, info) = ($1, $2, $3) WHERE id = $4`

	res, err := s.db.ExecContext(ctx, q, r.MetadataVersion, r.Hidden, info, r.ID)
	if err != nil {
		return fmt.Errorf("error updating release: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating release: %w", err)
	}
	if n == 0 {
		return ErrReleaseNotFound
	}

	return nil
}
