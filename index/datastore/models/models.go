package models

import (
	"sort"
	"time"
)

// Package is a top-level named project in the index. Access-control lists
// reference external identity entities (users and groups) by identifier only.
type Package struct {
	ID      int64
	Name    string
	Created time.Time

	// Owners is the legacy per-user owner list. It is kept for write-access
	// evaluation but superseded by GroupOwners for new packages.
	Owners []string

	// GroupOwners members have owner rights on the package.
	GroupOwners []string

	// GroupMaintainers members may manage releases but not package-level
	// settings.
	GroupMaintainers []string

	// DownloadGroups restricts downloads to members of these groups. An
	// empty set means no group restriction.
	DownloadGroups []string

	// AllowAuthenticated grants download access to any authenticated
	// principal, regardless of group membership. Setting it also stops a
	// package with no DownloadGroups from being public: anonymous callers
	// are denied and must authenticate.
	AllowAuthenticated bool
}

// Packages is a slice of Package pointers.
type Packages []*Package

// Release is one version of a Package.
type Release struct {
	ID              int64
	PackageID       int64
	Version         string
	MetadataVersion string
	Hidden          bool
	Created         time.Time

	// Info holds the structured release metadata. Keys and their cardinality
	// are defined by the schema handler selected by MetadataVersion.
	Info PackageInfo

	Package *Package
}

// Releases is a slice of Release pointers.
type Releases []*Release

// Distribution is one uploaded artifact file for a Release.
type Distribution struct {
	ID        int64
	ReleaseID int64
	Filetype  string
	PyVersion string
	Path      string
	MD5Digest string
	Size      int64
	Comment   string
	Uploader  string
	Created   time.Time

	Release *Release
}

// Distributions is a slice of Distribution pointers.
type Distributions []*Distribution

// PackageInfo is an ordered multi-valued key to values mapping for release
// metadata. Some keys (e.g. classifier) are inherently multi-valued; single
// valued keys are represented as a one-element list.
type PackageInfo map[string][]string

// Get returns the first value for key, or the empty string.
func (pi PackageInfo) Get(key string) string {
	vv := pi[key]
	if len(vv) == 0 {
		return ""
	}
	return vv[0]
}

// Set replaces the values for key with a single value.
func (pi PackageInfo) Set(key, value string) {
	pi[key] = []string{value}
}

// SetList replaces the values for key, preserving order.
func (pi PackageInfo) SetList(key string, values []string) {
	vv := make([]string, len(values))
	copy(vv, values)
	pi[key] = vv
}

// Keys returns the keys of the mapping in lexicographic order.
func (pi PackageInfo) Keys() []string {
	kk := make([]string, 0, len(pi))
	for k := range pi {
		kk = append(kk, k)
	}
	sort.Strings(kk)
	return kk
}

// Copy returns a deep copy of the mapping.
func (pi PackageInfo) Copy() PackageInfo {
	c := make(PackageInfo, len(pi))
	for k, vv := range pi {
		c.SetList(k, vv)
	}
	return c
}
