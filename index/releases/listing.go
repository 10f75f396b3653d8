package releases

import (
	"context"
	"sort"

	goversion "github.com/hashicorp/go-version"

	"github.com/pkgvault/pkgvault/index/access"
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore"
	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// ListVisible returns the releases the principal may read, ordered by
// package name and then lexicographically by version. Hidden releases are
// excluded unless includeHidden is set. Superusers see everything, other
// principals see the union of public, authenticated-eligible and
// group-matching packages.
func ListVisible(ctx context.Context, stores datastore.RegistryStore, p auth.Principal, includeHidden bool) (models.Releases, error) {
	all, err := stores.Releases().FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// package ACLs are loaded once per package, not per release
	packages := make(map[int64]*models.Package)

	visible := make(models.Releases, 0, len(all))
	for _, rel := range all {
		if rel.Hidden && !includeHidden {
			continue
		}

		pkg, ok := packages[rel.PackageID]
		if !ok {
			pkg, err = stores.Packages().FindByID(ctx, rel.PackageID)
			if err != nil {
				return nil, err
			}
			packages[rel.PackageID] = pkg
		}
		if pkg == nil {
			continue
		}

		if access.CanRead(p, pkg) {
			rel.Package = pkg
			visible = append(visible, rel)
		}
	}

	return visible, nil
}

// SortByVersion reorders releases by semantic version, most recent last.
// The registry's native ordering is lexicographic, callers that need
// semantic ordering opt in here. Versions that do not parse sort before all
// parseable ones, among themselves lexicographically.
func SortByVersion(rr models.Releases) {
	parsed := make(map[string]*goversion.Version, len(rr))
	for _, rel := range rr {
		if v, err := goversion.NewVersion(rel.Version); err == nil {
			parsed[rel.Version] = v
		}
	}

	sort.SliceStable(rr, func(i, j int) bool {
		vi, oki := parsed[rr[i].Version]
		vj, okj := parsed[rr[j].Version]
		switch {
		case oki && okj:
			return vi.LessThan(vj)
		case oki:
			return false
		case okj:
			return true
		default:
			return rr[i].Version < rr[j].Version
		}
	})
}
