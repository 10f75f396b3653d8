// Package storage implements the artifact store: content-addressed blob
// storage for uploaded distribution files on top of a storage driver.
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/opencontainers/go-digest"

	dcontext "github.com/pkgvault/pkgvault/context"
	storagedriver "github.com/pkgvault/pkgvault/index/storage/driver"
	"github.com/pkgvault/pkgvault/uuid"
)

// ErrDigestMismatch is returned when a client-declared digest disagrees with
// the digest computed from the received bytes. No artifact is persisted in
// that case.
var ErrDigestMismatch = errors.New("declared digest does not match content")

// ErrArtifactUnknown is returned when reading an artifact path with no
// stored content.
var ErrArtifactUnknown = errors.New("unknown artifact")

// Descriptor describes a stored artifact.
type Descriptor struct {
	// Path is the stored relative path of the artifact, which doubles as
	// its download path.
	Path string

	// MD5Digest is the hex MD5 of the content, the digest exposed to
	// packaging tooling.
	MD5Digest string

	// Digest is the canonical content address of the artifact.
	Digest digest.Digest

	// Size is the content length in bytes.
	Size int64
}

const (
	uploadRoot   = "/_uploads"
	artifactRoot = "/artifacts"

	// transient driver I/O failures during commit are retried this many
	// times with exponential backoff before the upload fails.
	maxCommitRetries = 3
	initialBackoff   = 100 * time.Millisecond
)

// ArtifactStore stores and serves distribution artifacts. Uploads are
// written to a temporary location and only moved to their final
// content-addressed path after digest verification, so a failed or mismatched
// upload never becomes visible to readers.
type ArtifactStore struct {
	driver storagedriver.StorageDriver
}

// NewArtifactStore builds an ArtifactStore on top of the given driver.
func NewArtifactStore(driver storagedriver.StorageDriver) *ArtifactStore {
	return &ArtifactStore{driver: driver}
}

// Put stores content under filename. declaredMD5, when non-empty, must match
// the MD5 computed from the received bytes or the upload is rejected with
// ErrDigestMismatch.
func (s *ArtifactStore) Put(ctx context.Context, filename string, content io.Reader, declaredMD5 string) (*Descriptor, error) {
	tempPath := path.Join(uploadRoot, uuid.Generate().String())

	fw, err := s.driver.Writer(ctx, tempPath, false)
	if err != nil {
		return nil, fmt.Errorf("error opening upload writer: %w", err)
	}

	md5Hash := md5.New()
	digester := digest.Canonical.Digester()

	size, err := io.Copy(io.MultiWriter(fw, md5Hash, digester.Hash()), content)
	if err != nil {
		fw.Cancel()
		return nil, fmt.Errorf("error receiving upload: %w", err)
	}

	if err := fw.Commit(); err != nil {
		fw.Cancel()
		return nil, fmt.Errorf("error flushing upload: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("error closing upload: %w", err)
	}

	computedMD5 := hex.EncodeToString(md5Hash.Sum(nil))
	if declaredMD5 != "" && declaredMD5 != computedMD5 {
		if err := s.driver.Delete(ctx, tempPath); err != nil {
			dcontext.GetLogger(ctx).WithError(err).Warn("error removing rejected upload")
		}
		return nil, ErrDigestMismatch
	}

	dgst := digester.Digest()
	dataPath := artifactDataPath(dgst, filename)

	err = s.retry(ctx, func() error {
		return s.driver.Move(ctx, tempPath, dataPath)
	})
	if err != nil {
		return nil, fmt.Errorf("error committing artifact: %w", err)
	}

	return &Descriptor{
		Path:      dataPath,
		MD5Digest: computedMD5,
		Digest:    dgst,
		Size:      size,
	}, nil
}

// Reader opens the stored artifact at path for streaming. The returned
// reader is not buffered; cancelling ctx aborts a stream served from it
// without affecting stored state.
func (s *ArtifactStore) Reader(ctx context.Context, artifactPath string) (io.ReadCloser, error) {
	rc, err := s.driver.Reader(ctx, artifactPath, 0)
	if err != nil {
		if errors.As(err, &storagedriver.PathNotFoundError{}) {
			return nil, ErrArtifactUnknown
		}
		return nil, err
	}
	return rc, nil
}

// Stat returns the size of the stored artifact at path.
func (s *ArtifactStore) Stat(ctx context.Context, artifactPath string) (int64, error) {
	fi, err := s.driver.Stat(ctx, artifactPath)
	if err != nil {
		if errors.As(err, &storagedriver.PathNotFoundError{}) {
			return 0, ErrArtifactUnknown
		}
		return 0, err
	}
	return fi.Size(), nil
}

// Delete removes the stored artifact at path. Used to clean up blobs whose
// distribution row lost a uniqueness race.
func (s *ArtifactStore) Delete(ctx context.Context, artifactPath string) error {
	err := s.driver.Delete(ctx, artifactPath)
	if errors.As(err, &storagedriver.PathNotFoundError{}) {
		// already gone
		return nil
	}
	return err
}

// retry runs op under bounded exponential backoff. Path errors are terminal,
// only transient I/O failures are retried.
func (s *ArtifactStore) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.As(err, &storagedriver.PathNotFoundError{}) || errors.As(err, &storagedriver.InvalidPathError{}) {
			return backoff.Permanent(err)
		}
		dcontext.GetLogger(ctx).WithError(err).Warn("transient artifact store error, retrying")
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxCommitRetries), ctx))
}

// artifactDataPath lays out the final location of an artifact:
// /artifacts/<algorithm>/<first two hex bytes>/<hex>/<filename>
// The filename is kept as the final component so that download responses
// carry the original name.
func artifactDataPath(dgst digest.Digest, filename string) string {
	hex := dgst.Hex()
	return path.Join(artifactRoot, dgst.Algorithm().String(), hex[:2], hex, filename)
}
