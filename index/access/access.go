// Package access implements the permission evaluation rules for packages.
// Decisions are ordinary conditional logic over the materialized group sets
// carried by the package model, evaluated fresh on every call so revoked
// grants take effect immediately.
package access

import (
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore/models"
)

// Audience classifies who may download a package's artifacts.
type Audience int

const (
	// Public packages are downloadable by anyone, including anonymous
	// callers.
	Public Audience = iota
	// Authenticated packages are downloadable by any authenticated
	// principal.
	Authenticated
	// Restricted packages are downloadable only by members of the package's
	// download groups.
	Restricted
)

func (a Audience) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Restricted:
		return "restricted"
	}
	return "unknown"
}

// AudienceOf classifies a package. A package is public only when it has no
// download groups and its allow-authenticated flag is unset; setting the
// flag restricts the package to authenticated principals even without any
// download groups, and on packages with download groups it widens access
// beyond the group members. This ordering is load-bearing, see CanRead.
func AudienceOf(pkg *models.Package) Audience {
	if len(pkg.DownloadGroups) == 0 && !pkg.AllowAuthenticated {
		return Public
	}
	if pkg.AllowAuthenticated {
		return Authenticated
	}
	return Restricted
}

// CanRead decides whether the principal may download the package's
// artifacts. The precedence is:
//
//  1. superusers always read
//  2. no download groups and allow-authenticated unset: public
//  3. anonymous callers are otherwise denied
//  4. allow-authenticated set: any authenticated principal reads
//  5. otherwise the principal's groups must intersect the download groups
func CanRead(p auth.Principal, pkg *models.Package) bool {
	if p.Superuser {
		return true
	}
	if len(pkg.DownloadGroups) == 0 && !pkg.AllowAuthenticated {
		return true
	}
	if !p.Authenticated {
		return false
	}
	if pkg.AllowAuthenticated {
		return true
	}
	return intersects(p.Groups, pkg.DownloadGroups)
}

// CanWrite decides whether the principal may manage the package's releases.
// Owners and maintainers are not distinguished here, both may manage
// releases, whether granted directly or through group membership.
func CanWrite(p auth.Principal, pkg *models.Package) bool {
	if p.Superuser {
		return true
	}
	if !p.Authenticated {
		return false
	}
	for _, owner := range pkg.Owners {
		if owner == p.Name {
			return true
		}
	}
	if intersects(p.Groups, pkg.GroupOwners) {
		return true
	}
	return intersects(p.Groups, pkg.GroupMaintainers)
}

// Unrestricted reports whether the package requires no download
// authentication at all. The download gateway uses this to serve such
// packages to anonymous callers without attempting authentication.
func Unrestricted(pkg *models.Package) bool {
	return len(pkg.DownloadGroups) == 0 && !pkg.AllowAuthenticated
}

func intersects(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
