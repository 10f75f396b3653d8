package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// DistributionReader is the interface that defines read operations for a distribution store.
type DistributionReader interface {
	FindAll(ctx context.Context) (models.Distributions, error)
	FindByID(ctx context.Context, id int64) (*models.Distribution, error)
	FindByPath(ctx context.Context, path string) (*models.Distribution, error)
	Count(ctx context.Context) (int, error)
	Release(ctx context.Context, d *models.Distribution) (*models.Release, error)
}

// DistributionWriter is the interface that defines write operations for a distribution store.
type DistributionWriter interface {
	Create(ctx context.Context, d *models.Distribution) error
}

// DistributionStore is the interface that a distribution store should conform to.
type DistributionStore interface {
	DistributionReader
	DistributionWriter
}

// distributionStore is the concrete implementation of a DistributionStore.
type distributionStore struct {
	db Queryer
}

// NewDistributionStore builds a new distributionStore.
func NewDistributionStore(db Queryer) DistributionStore {
	return &distributionStore{db: db}
}

func scanFullDistribution(row *sql.Row) (*models.Distribution, error) {
	d := new(models.Distribution)

	if err := row.Scan(&d.ID, &d.ReleaseID, &d.Filetype, &d.PyVersion, &d.Path, &d.MD5Digest,
		&d.Size, &d.Comment, &d.Uploader, &d.Created); err != nil {
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("error scanning distribution: %w", err)
		}
		return nil, nil
	}

	return d, nil
}

func scanFullDistributions(rows *sql.Rows) (models.Distributions, error) {
	dd := make(models.Distributions, 0)
	defer rows.Close()

	for rows.Next() {
		d := new(models.Distribution)
		if err := rows.Scan(&d.ID, &d.ReleaseID, &d.Filetype, &d.PyVersion, &d.Path, &d.MD5Digest,
			&d.Size, &d.Comment, &d.Uploader, &d.Created); err != nil {
			return nil, fmt.Errorf("error scanning distribution: %w", err)
		}
		dd = append(dd, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning distributions: %w", err)
	}

	return dd, nil
}

// FindByID finds a distribution by ID.
func (s *distributionStore) FindByID(ctx context.Context, id int64) (*models.Distribution, error) {
	q := `SELECT id, release_id, filetype, pyversion, path, md5_digest, size, comment, uploader, created_at
		FROM distributions WHERE id = $1`
	row := s.db.QueryRowContext(ctx, q, id)

	return scanFullDistribution(row)
}

// FindByPath finds a distribution by its stored content path. This is the
// lookup used by the download gateway to resolve request paths.
func (s *distributionStore) FindByPath(ctx context.Context, path string) (*models.Distribution, error) {
	q := `SELECT id, release_id, filetype, pyversion, path, md5_digest, size, comment, uploader, created_at
		FROM distributions WHERE path = $1`
	row := s.db.QueryRowContext(ctx, q, path)

	return scanFullDistribution(row)
}

// FindAll finds all distributions.
func (s *distributionStore) FindAll(ctx context.Context) (models.Distributions, error) {
	q := `SELECT id, release_id, filetype, pyversion, path, md5_digest, size, comment, uploader, created_at
		FROM distributions`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error finding distributions: %w", err)
	}

	return scanFullDistributions(rows)
}

// Count counts all distributions.
func (s *distributionStore) Count(ctx context.Context) (int, error) {
	q := "SELECT COUNT(*) FROM distributions"
	var count int

	if err := s.db.QueryRowContext(ctx, q).Scan(&count); err != nil {
		return count, fmt.Errorf("error counting distributions: %w", err)
	}

	return count, nil
}

// Release finds the release that a distribution is attached to.
func (s *distributionStore) Release(ctx context.Context, d *models.Distribution) (*models.Release, error) {
	return NewReleaseStore(s.db).FindByID(ctx, d.ReleaseID)
}

// Create attaches a new distribution to a release. At most one artifact of a
// given (filetype, pyversion) pair may exist per release, a conflicting
// concurrent insert resolves to ErrDuplicateArtifact on the loser.
func (s *distributionStore) Create(ctx context.Context, d *models.Distribution) error {
	q := `INSERT INTO distributions (release_id, filetype, pyversion, path, md5_digest, size, comment, uploader)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`

	row := s.db.QueryRowContext(ctx, q, d.ReleaseID, d.Filetype, d.PyVersion, d.Path, d.MD5Digest,
		d.Size, d.Comment, d.Uploader)
	if err := row.Scan(&d.ID, &d.Created); err != nil {
		if uniqueViolation(err, "unq_distributions_release_id_filetype_pyversion") {
			return ErrDuplicateArtifact
		}
		return fmt.Errorf("error creating distribution: %w", err)
	}

	return nil
}
