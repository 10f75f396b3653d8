package releases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/auth"
	dbinmemory "github.com/pkgvault/pkgvault/index/datastore/inmemory"
	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/releases"
)

func seedListing(t *testing.T) *dbinmemory.Registry {
	t.Helper()
	reg := dbinmemory.New()
	ctx := context.Background()

	public := &models.Package{Name: "open-lib"}
	restricted := &models.Package{Name: "platform-lib", DownloadGroups: []string{"platform"}}
	authOnly := &models.Package{Name: "staff-lib", AllowAuthenticated: true}
	require.NoError(t, reg.Packages().Create(ctx, public))
	require.NoError(t, reg.Packages().Create(ctx, restricted))
	require.NoError(t, reg.Packages().Create(ctx, authOnly))

	for _, rel := range []*models.Release{
		{PackageID: public.ID, Version: "1.0.0", MetadataVersion: "1.0"},
		{PackageID: public.ID, Version: "1.1.0", MetadataVersion: "1.0", Hidden: true},
		{PackageID: restricted.ID, Version: "0.9.0", MetadataVersion: "1.0"},
		{PackageID: authOnly.ID, Version: "2.0.0", MetadataVersion: "1.0"},
	} {
		require.NoError(t, reg.Releases().Create(ctx, rel))
	}

	return reg
}

func versions(rr models.Releases) []string {
	vv := make([]string, 0, len(rr))
	for _, rel := range rr {
		vv = append(vv, rel.Version)
	}
	return vv
}

func TestListVisible(t *testing.T) {
	reg := seedListing(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal auth.Principal
		out       []string
	}{
		{
			name:      "anonymous sees public only",
			principal: auth.Anonymous,
			out:       []string{"1.0.0"},
		},
		{
			name:      "authenticated sees public and allow authenticated",
			principal: auth.Principal{Name: "carol", Authenticated: true},
			out:       []string{"1.0.0", "2.0.0"},
		},
		{
			name:      "group member sees restricted too",
			principal: auth.Principal{Name: "alice", Groups: []string{"platform"}, Authenticated: true},
			out:       []string{"1.0.0", "0.9.0", "2.0.0"},
		},
		{
			name:      "superuser sees everything visible",
			principal: auth.Principal{Name: "admin", Superuser: true, Authenticated: true},
			out:       []string{"1.0.0", "0.9.0", "2.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, err := releases.ListVisible(ctx, reg, tt.principal, false)
			require.NoError(t, err)
			require.Equal(t, tt.out, versions(rr))
			for _, rel := range rr {
				require.NotNil(t, rel.Package)
			}
		})
	}
}

func TestListVisible_IncludeHidden(t *testing.T) {
	reg := seedListing(t)

	rr, err := releases.ListVisible(context.Background(), reg, auth.Anonymous, true)
	require.NoError(t, err)
	require.Equal(t, []string{"1.0.0", "1.1.0"}, versions(rr))
}

func TestSortByVersion(t *testing.T) {
	rr := models.Releases{
		{Version: "1.10.0"},
		{Version: "not-a-version"},
		{Version: "1.2.0"},
		{Version: "also-unparseable"},
		{Version: "1.2.0-rc1"},
	}

	releases.SortByVersion(rr)

	require.Equal(t, []string{
		"also-unparseable",
		"not-a-version",
		"1.2.0-rc1",
		"1.2.0",
		"1.10.0",
	}, versions(rr))
}
