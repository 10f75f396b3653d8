package access_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/access"
	"github.com/pkgvault/pkgvault/index/auth"
	"github.com/pkgvault/pkgvault/index/datastore/models"
)

var (
	anonymous = auth.Anonymous
	admin     = auth.Principal{Name: "admin", Superuser: true, Authenticated: true}
	alice     = auth.Principal{Name: "alice", Groups: []string{"platform"}, Authenticated: true}
	bob       = auth.Principal{Name: "bob", Groups: []string{"data"}, Authenticated: true}
	carol     = auth.Principal{Name: "carol", Authenticated: true}
)

func TestCanRead(t *testing.T) {
	tests := []struct {
		name      string
		principal auth.Principal
		pkg       *models.Package
		out       bool
	}{
		{
			name:      "public package anonymous",
			principal: anonymous,
			pkg:       &models.Package{Name: "lib-a"},
			out:       true,
		},
		{
			name:      "public package authenticated",
			principal: alice,
			pkg:       &models.Package{Name: "lib-a"},
			out:       true,
		},
		{
			name:      "allow authenticated denies anonymous",
			principal: anonymous,
			pkg:       &models.Package{Name: "lib-a", AllowAuthenticated: true},
			out:       false,
		},
		{
			name:      "allow authenticated grants any authenticated principal",
			principal: carol,
			pkg:       &models.Package{Name: "lib-a", AllowAuthenticated: true},
			out:       true,
		},
		{
			name:      "allow authenticated wins over download groups",
			principal: bob,
			pkg: &models.Package{
				Name:               "lib-a",
				AllowAuthenticated: true,
				DownloadGroups:     []string{"platform"},
			},
			out: true,
		},
		{
			name:      "restricted package anonymous",
			principal: anonymous,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       false,
		},
		{
			name:      "restricted package group member",
			principal: alice,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       true,
		},
		{
			name:      "restricted package non member",
			principal: bob,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       false,
		},
		{
			name:      "restricted package no groups at all",
			principal: carol,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       false,
		},
		{
			name:      "superuser reads restricted",
			principal: admin,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       true,
		},
		{
			name:      "superuser reads authenticated only",
			principal: admin,
			pkg:       &models.Package{Name: "lib-a", AllowAuthenticated: true},
			out:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.out, access.CanRead(tt.principal, tt.pkg))
		})
	}
}

// Widening a package's download groups never revokes access from a principal
// who could already read it.
func TestCanRead_AddingGroupsNeverRevokes(t *testing.T) {
	pkg := &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}}
	require.True(t, access.CanRead(alice, pkg))

	pkg.DownloadGroups = append(pkg.DownloadGroups, "data")
	require.True(t, access.CanRead(alice, pkg))
	require.True(t, access.CanRead(bob, pkg))
}

func TestCanWrite(t *testing.T) {
	tests := []struct {
		name      string
		principal auth.Principal
		pkg       *models.Package
		out       bool
	}{
		{
			name:      "anonymous never writes",
			principal: anonymous,
			pkg:       &models.Package{Name: "lib-a"},
			out:       false,
		},
		{
			name:      "unrelated principal",
			principal: carol,
			pkg:       &models.Package{Name: "lib-a", Owners: []string{"alice"}},
			out:       false,
		},
		{
			name:      "direct owner",
			principal: alice,
			pkg:       &models.Package{Name: "lib-a", Owners: []string{"alice"}},
			out:       true,
		},
		{
			name:      "owner group member",
			principal: alice,
			pkg:       &models.Package{Name: "lib-a", GroupOwners: []string{"platform"}},
			out:       true,
		},
		{
			name:      "maintainer group member",
			principal: bob,
			pkg:       &models.Package{Name: "lib-a", GroupMaintainers: []string{"data"}},
			out:       true,
		},
		{
			name:      "download group grants no write",
			principal: alice,
			pkg:       &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:       false,
		},
		{
			name:      "superuser",
			principal: admin,
			pkg:       &models.Package{Name: "lib-a"},
			out:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.out, access.CanWrite(tt.principal, tt.pkg))
		})
	}
}

func TestAudienceOf(t *testing.T) {
	tests := []struct {
		name string
		pkg  *models.Package
		out  access.Audience
	}{
		{
			name: "no groups no flag",
			pkg:  &models.Package{Name: "lib-a"},
			out:  access.Public,
		},
		{
			name: "flag only",
			pkg:  &models.Package{Name: "lib-a", AllowAuthenticated: true},
			out:  access.Authenticated,
		},
		{
			name: "groups only",
			pkg:  &models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}},
			out:  access.Restricted,
		},
		{
			name: "groups and flag",
			pkg: &models.Package{
				Name:               "lib-a",
				AllowAuthenticated: true,
				DownloadGroups:     []string{"platform"},
			},
			out: access.Authenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.out, access.AudienceOf(tt.pkg))
		})
	}
}

func TestUnrestricted(t *testing.T) {
	require.True(t, access.Unrestricted(&models.Package{Name: "lib-a"}))
	require.False(t, access.Unrestricted(&models.Package{Name: "lib-a", AllowAuthenticated: true}))
	require.False(t, access.Unrestricted(&models.Package{Name: "lib-a", DownloadGroups: []string{"platform"}}))
}
