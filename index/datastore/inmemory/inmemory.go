// Package inmemory provides a mutex-guarded, process-local implementation of
// the datastore interfaces. It backs unit tests and small single-node
// deployments that do not warrant a database.
package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/internal"
)

// Registry holds all index metadata in memory. The zero value is not usable,
// construct with New.
type Registry struct {
	mu    sync.Mutex
	clock internal.Clock

	nextID        int64
	packages      map[int64]*models.Package
	releases      map[int64]*models.Release
	distributions map[int64]*models.Distribution
}

// New builds an empty in-memory registry.
func New() *Registry {
	return NewWithClock(clock.New())
}

// NewWithClock builds an empty in-memory registry using the given clock for
// creation timestamps.
func NewWithClock(c internal.Clock) *Registry {
	return &Registry{
		clock:         c,
		packages:      make(map[int64]*models.Package),
		releases:      make(map[int64]*models.Release),
		distributions: make(map[int64]*models.Distribution),
	}
}

// Packages returns a PackageStore view of the registry.
func (r *Registry) Packages() datastore.PackageStore {
	return &packageStore{r}
}

// Releases returns a ReleaseStore view of the registry.
func (r *Registry) Releases() datastore.ReleaseStore {
	return &releaseStore{r}
}

// Distributions returns a DistributionStore view of the registry.
func (r *Registry) Distributions() datastore.DistributionStore {
	return &distributionStore{r}
}

func (r *Registry) id() int64 {
	r.nextID++
	return r.nextID
}

func copyPackage(p *models.Package) *models.Package {
	c := *p
	c.Owners = append([]string(nil), p.Owners...)
	c.GroupOwners = append([]string(nil), p.GroupOwners...)
	c.GroupMaintainers = append([]string(nil), p.GroupMaintainers...)
	c.DownloadGroups = append([]string(nil), p.DownloadGroups...)
	return &c
}

func copyRelease(rel *models.Release) *models.Release {
	c := *rel
	c.Info = rel.Info.Copy()
	c.Package = nil
	return &c
}

func copyDistribution(d *models.Distribution) *models.Distribution {
	c := *d
	c.Release = nil
	return &c
}

type packageStore struct {
	r *Registry
}

func (s *packageStore) FindByID(_ context.Context, id int64) (*models.Package, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	p, ok := s.r.packages[id]
	if !ok {
		return nil, nil
	}
	return copyPackage(p), nil
}

func (s *packageStore) FindByName(_ context.Context, name string) (*models.Package, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, p := range s.r.packages {
		if p.Name == name {
			return copyPackage(p), nil
		}
	}
	return nil, nil
}

func (s *packageStore) FindAll(_ context.Context) (models.Packages, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	pp := make(models.Packages, 0, len(s.r.packages))
	for _, p := range s.r.packages {
		pp = append(pp, copyPackage(p))
	}
	sort.Slice(pp, func(i, j int) bool { return pp[i].Name < pp[j].Name })
	return pp, nil
}

func (s *packageStore) Count(_ context.Context) (int, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	return len(s.r.packages), nil
}

func (s *packageStore) Releases(_ context.Context, p *models.Package) (models.Releases, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	rr := make(models.Releases, 0)
	for _, rel := range s.r.releases {
		if rel.PackageID == p.ID {
			rr = append(rr, copyRelease(rel))
		}
	}
	sort.Slice(rr, func(i, j int) bool { return rr[i].Version < rr[j].Version })
	return rr, nil
}

func (s *packageStore) Create(_ context.Context, p *models.Package) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, existing := range s.r.packages {
		if existing.Name == p.Name {
			return datastore.ErrDuplicatePackageName
		}
	}

	p.ID = s.r.id()
	p.Created = s.r.clock.Now()
	s.r.packages[p.ID] = copyPackage(p)
	return nil
}

func (s *packageStore) Update(_ context.Context, p *models.Package) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	existing, ok := s.r.packages[p.ID]
	if !ok {
		return datastore.ErrPackageNotFound
	}

	c := copyPackage(p)
	c.Name = existing.Name // immutable
	c.Created = existing.Created
	s.r.packages[p.ID] = c
	return nil
}

type releaseStore struct {
	r *Registry
}

func (s *releaseStore) FindByID(_ context.Context, id int64) (*models.Release, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	rel, ok := s.r.releases[id]
	if !ok {
		return nil, nil
	}
	return copyRelease(rel), nil
}

func (s *releaseStore) FindByVersion(_ context.Context, p *models.Package, version string) (*models.Release, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, rel := range s.r.releases {
		if rel.PackageID == p.ID && rel.Version == version {
			return copyRelease(rel), nil
		}
	}
	return nil, nil
}

func (s *releaseStore) FindAll(_ context.Context) (models.Releases, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	rr := make(models.Releases, 0, len(s.r.releases))
	for _, rel := range s.r.releases {
		rr = append(rr, copyRelease(rel))
	}
	sort.Slice(rr, func(i, j int) bool {
		pi, pj := s.r.packages[rr[i].PackageID], s.r.packages[rr[j].PackageID]
		if pi.Name != pj.Name {
			return pi.Name < pj.Name
		}
		return rr[i].Version < rr[j].Version
	})
	return rr, nil
}

func (s *releaseStore) Count(_ context.Context) (int, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	return len(s.r.releases), nil
}

func (s *releaseStore) Package(_ context.Context, rel *models.Release) (*models.Package, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	p, ok := s.r.packages[rel.PackageID]
	if !ok {
		return nil, nil
	}
	return copyPackage(p), nil
}

func (s *releaseStore) Distributions(_ context.Context, rel *models.Release) (models.Distributions, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	dd := make(models.Distributions, 0)
	for _, d := range s.r.distributions {
		if d.ReleaseID == rel.ID {
			dd = append(dd, copyDistribution(d))
		}
	}
	sort.Slice(dd, func(i, j int) bool {
		if dd[i].Filetype != dd[j].Filetype {
			return dd[i].Filetype < dd[j].Filetype
		}
		return dd[i].PyVersion < dd[j].PyVersion
	})
	return dd, nil
}

// Create inserts a release. The uniqueness check and the insert run under a
// single lock acquisition so that concurrent attempts on the same
// (package, version) pair resolve to exactly one winner.
func (s *releaseStore) Create(_ context.Context, rel *models.Release) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, existing := range s.r.releases {
		if existing.PackageID == rel.PackageID && existing.Version == rel.Version {
			return datastore.ErrDuplicateVersion
		}
	}

	if rel.Info == nil {
		rel.Info = models.PackageInfo{}
	}
	rel.ID = s.r.id()
	rel.Created = s.r.clock.Now()
	s.r.releases[rel.ID] = copyRelease(rel)
	return nil
}

func (s *releaseStore) Update(_ context.Context, rel *models.Release) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	existing, ok := s.r.releases[rel.ID]
	if !ok {
		return datastore.ErrReleaseNotFound
	}

	c := copyRelease(rel)
	c.PackageID = existing.PackageID
	c.Version = existing.Version // immutable
	c.Created = existing.Created
	s.r.releases[rel.ID] = c
	return nil
}

type distributionStore struct {
	r *Registry
}

func (s *distributionStore) FindByID(_ context.Context, id int64) (*models.Distribution, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	d, ok := s.r.distributions[id]
	if !ok {
		return nil, nil
	}
	return copyDistribution(d), nil
}

func (s *distributionStore) FindByPath(_ context.Context, path string) (*models.Distribution, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, d := range s.r.distributions {
		if d.Path == path {
			return copyDistribution(d), nil
		}
	}
	return nil, nil
}

func (s *distributionStore) FindAll(_ context.Context) (models.Distributions, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	dd := make(models.Distributions, 0, len(s.r.distributions))
	for _, d := range s.r.distributions {
		dd = append(dd, copyDistribution(d))
	}
	sort.Slice(dd, func(i, j int) bool { return dd[i].ID < dd[j].ID })
	return dd, nil
}

func (s *distributionStore) Count(_ context.Context) (int, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	return len(s.r.distributions), nil
}

func (s *distributionStore) Release(_ context.Context, d *models.Distribution) (*models.Release, error) {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	rel, ok := s.r.releases[d.ReleaseID]
	if !ok {
		return nil, nil
	}
	return copyRelease(rel), nil
}

// Create inserts a distribution under the same single-lock check-and-insert
// discipline as releaseStore.Create.
func (s *distributionStore) Create(_ context.Context, d *models.Distribution) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()

	for _, existing := range s.r.distributions {
		if existing.ReleaseID == d.ReleaseID && existing.Filetype == d.Filetype && existing.PyVersion == d.PyVersion {
			return datastore.ErrDuplicateArtifact
		}
	}

	d.ID = s.r.id()
	d.Created = s.r.clock.Now()
	s.r.distributions[d.ID] = copyDistribution(d)
	return nil
}
