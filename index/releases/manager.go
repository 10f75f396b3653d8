// Package releases implements the release manager: the mutation API for
// release metadata and distribution uploads. All operations authorize the
// acting principal before touching the registry.
package releases

import (
	"context"
	"errors"
	"fmt"
	"io"

	dcontext "github.com/pkgvault/pkgvault/context"
	"github.com/pkgvault/pkgvault/index/access"
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/metadata"
	"github.com/pkgvault/pkgvault/index/storage"
)

// ErrForbidden is returned when the acting principal lacks maintain rights
// on the target package.
var ErrForbidden = errors.New("insufficient permissions on package")

// UploadPayload is a validated upload as provided by the upstream form
// layer. Size limits and filename sanitization happen before the payload
// reaches the manager.
type UploadPayload struct {
	Filename string
	Content  io.Reader

	// MD5Digest optionally carries the client-declared digest of Content.
	MD5Digest string

	Filetype  string
	PyVersion string
	Comment   string
}

// Manager mutates the version registry on behalf of principals.
type Manager struct {
	stores    datastore.RegistryStore
	artifacts *storage.ArtifactStore
	schemas   *metadata.Registry
}

// NewManager builds a release manager.
func NewManager(stores datastore.RegistryStore, artifacts *storage.ArtifactStore, schemas *metadata.Registry) *Manager {
	return &Manager{
		stores:    stores,
		artifacts: artifacts,
		schemas:   schemas,
	}
}

func (m *Manager) authorize(ctx context.Context, actor auth.Principal, name string) (*models.Package, error) {
	pkg, err := m.stores.Packages().FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, datastore.ErrPackageNotFound
	}
	if !access.CanWrite(actor, pkg) {
		dcontext.GetLoggerWithFields(ctx, map[interface{}]interface{}{
			"user":    actor.Name,
			"package": pkg.Name,
		}).Info("package write permission denied")
		return nil, ErrForbidden
	}
	return pkg, nil
}

// UpsertReleaseMetadata replaces the recognized metadata of a release,
// creating the release when absent. Keys absent from fields are cleared:
// the metadata is rebuilt from the submission, not merged.
func (m *Manager) UpsertReleaseMetadata(ctx context.Context, actor auth.Principal, name, version, metadataVersion string, fields map[string][]string) (*models.Release, error) {
	pkg, err := m.authorize(ctx, actor, name)
	if err != nil {
		return nil, err
	}

	handler, err := m.schemas.Handler(metadataVersion)
	if err != nil {
		return nil, err
	}

	info := handler.Apply(fields)

	rel, err := m.stores.Releases().FindByVersion(ctx, pkg, version)
	if err != nil {
		return nil, err
	}

	if rel == nil {
		rel = &models.Release{
			PackageID:       pkg.ID,
			Version:         version,
			MetadataVersion: metadataVersion,
			Info:            info,
		}
		err = m.stores.Releases().Create(ctx, rel)
		if err == nil {
			return rel, nil
		}
		if !errors.Is(err, datastore.ErrDuplicateVersion) {
			return nil, err
		}
		// lost a create race, fall through to update the winner
		rel, err = m.stores.Releases().FindByVersion(ctx, pkg, version)
		if err != nil {
			return nil, err
		}
		if rel == nil {
			return nil, datastore.ErrReleaseNotFound
		}
	}

	rel.MetadataVersion = metadataVersion
	rel.Info = info
	if err := m.stores.Releases().Update(ctx, rel); err != nil {
		return nil, err
	}

	return rel, nil
}

// UploadDistribution stores a distribution artifact and attaches it to the
// release, creating the release on first upload. The artifact blob is
// committed before the distribution row is written, and removed again when
// the row loses the (filetype, pyversion) uniqueness race.
func (m *Manager) UploadDistribution(ctx context.Context, actor auth.Principal, name, version string, payload UploadPayload) (*models.Distribution, error) {
	pkg, err := m.authorize(ctx, actor, name)
	if err != nil {
		return nil, err
	}

	rel, err := m.findOrCreateRelease(ctx, pkg, version)
	if err != nil {
		return nil, err
	}

	desc, err := m.artifacts.Put(ctx, payload.Filename, payload.Content, payload.MD5Digest)
	if err != nil {
		return nil, err
	}

	dist := &models.Distribution{
		ReleaseID: rel.ID,
		Filetype:  payload.Filetype,
		PyVersion: payload.PyVersion,
		Path:      desc.Path,
		MD5Digest: desc.MD5Digest,
		Size:      desc.Size,
		Comment:   payload.Comment,
		Uploader:  actor.Name,
	}

	if err := m.stores.Distributions().Create(ctx, dist); err != nil {
		if errors.Is(err, datastore.ErrDuplicateArtifact) {
			m.discardLoserBlob(ctx, rel, desc.Path)
		}
		return nil, err
	}

	dcontext.GetLoggerWithFields(ctx, map[interface{}]interface{}{
		"user":     actor.Name,
		"package":  pkg.Name,
		"version":  rel.Version,
		"filetype": dist.Filetype,
		"path":     dist.Path,
	}).Info("distribution uploaded")

	return dist, nil
}

func (m *Manager) findOrCreateRelease(ctx context.Context, pkg *models.Package, version string) (*models.Release, error) {
	rel, err := m.stores.Releases().FindByVersion(ctx, pkg, version)
	if err != nil {
		return nil, err
	}
	if rel != nil {
		return rel, nil
	}

	rel = &models.Release{
		PackageID:       pkg.ID,
		Version:         version,
		MetadataVersion: metadata.DefaultVersion,
		Info:            models.PackageInfo{},
	}
	err = m.stores.Releases().Create(ctx, rel)
	if err == nil {
		return rel, nil
	}
	if !errors.Is(err, datastore.ErrDuplicateVersion) {
		return nil, err
	}

	// another upload created the release first, reuse it
	rel, err = m.stores.Releases().FindByVersion(ctx, pkg, version)
	if err != nil {
		return nil, err
	}
	if rel == nil {
		return nil, datastore.ErrReleaseNotFound
	}
	return rel, nil
}

// discardLoserBlob removes an uploaded blob whose distribution row lost the
// uniqueness race, unless the winning row references the same stored path
// (identical content addresses to the same blob).
func (m *Manager) discardLoserBlob(ctx context.Context, rel *models.Release, path string) {
	dd, err := m.stores.Releases().Distributions(ctx, rel)
	if err != nil {
		dcontext.GetLogger(ctx).WithError(err).Warn("error checking blob references")
		return
	}
	for _, d := range dd {
		if d.Path == path {
			return
		}
	}
	if err := m.artifacts.Delete(ctx, path); err != nil {
		dcontext.GetLogger(ctx).WithError(err).Warn(fmt.Sprintf("error removing orphaned blob %s", path))
	}
}
