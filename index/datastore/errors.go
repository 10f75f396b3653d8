package datastore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a row is not found on the metadata database.
	ErrNotFound = errors.New("not found")
	// ErrPackageNotFound is returned when a package is not found on the metadata database.
	ErrPackageNotFound = fmt.Errorf("package %w", ErrNotFound)
	// ErrReleaseNotFound is returned when a release is not found on the metadata database.
	ErrReleaseNotFound = fmt.Errorf("release %w", ErrNotFound)
	// ErrDistributionNotFound is returned when a distribution is not found on the metadata database.
	ErrDistributionNotFound = fmt.Errorf("distribution %w", ErrNotFound)

	// ErrDuplicatePackageName is returned when creating a package whose name
	// already exists.
	ErrDuplicatePackageName = errors.New("package name already exists")
	// ErrDuplicateVersion is returned when creating a release whose
	// (package, version) pair already exists.
	ErrDuplicateVersion = errors.New("release version already exists for package")
	// ErrDuplicateArtifact is returned when attaching a distribution whose
	// (release, filetype, pyversion) triple already exists.
	ErrDuplicateArtifact = errors.New("distribution already exists for release")
)
