package metadata_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/datastore/models"
	"github.com/pkgvault/pkgvault/index/metadata"
)

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		out      []string
		err      error
	}{
		{name: "empty enables all builtin", versions: nil, out: []string{"1.0", "1.1", "1.2"}},
		{name: "restricted", versions: []string{"1.0"}, out: []string{"1.0"}},
		{name: "unknown version", versions: []string{"2.0"}, err: metadata.ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := metadata.NewRegistry(tt.versions)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.ElementsMatch(t, tt.out, r.Versions())
		})
	}
}

func TestRegistry_Handler_Unsupported(t *testing.T) {
	r, err := metadata.NewRegistry([]string{"1.0"})
	require.NoError(t, err)

	_, err = r.Handler("1.2")
	require.ErrorIs(t, err, metadata.ErrUnsupportedVersion)
}

func TestHandler_Recognizes(t *testing.T) {
	r, err := metadata.NewRegistry(nil)
	require.NoError(t, err)

	h10, err := r.Handler("1.0")
	require.NoError(t, err)
	require.True(t, h10.Recognizes("summary"))
	require.False(t, h10.Recognizes("classifier"))

	h11, err := r.Handler("1.1")
	require.NoError(t, err)
	require.True(t, h11.Recognizes("classifier"))
	require.False(t, h11.Recognizes("requires-python"))

	h12, err := r.Handler("1.2")
	require.NoError(t, err)
	require.True(t, h12.Recognizes("requires-python"))
}

func TestHandler_Apply(t *testing.T) {
	r, err := metadata.NewRegistry(nil)
	require.NoError(t, err)
	h, err := r.Handler("1.1")
	require.NoError(t, err)

	info := h.Apply(map[string][]string{
		"summary": {"An example package"},
		"classifier": {
			"Programming Language :: Python",
			"License :: OSI Approved :: BSD License",
		},
		"description": {"line one\nline two"},
		"unrecognized": {"dropped"},
	})

	require.Equal(t, "An example package", info.Get("summary"))
	require.Equal(t, []string{
		"Programming Language :: Python",
		"License :: OSI Approved :: BSD License",
	}, info["classifier"])
	require.Equal(t, []string{"line one", "line two"}, info["description"])
	require.NotContains(t, info, "unrecognized")
}

func TestHandler_Apply_ClearsAbsentKeys(t *testing.T) {
	r, err := metadata.NewRegistry(nil)
	require.NoError(t, err)
	h, err := r.Handler("1.0")
	require.NoError(t, err)

	info := h.Apply(map[string][]string{"summary": {"first revision"}})
	require.Equal(t, "first revision", info.Get("summary"))

	info = h.Apply(map[string][]string{"license": {"BSD"}})
	require.NotContains(t, info, "summary")
	require.Equal(t, "BSD", info.Get("license"))
}

func TestHandler_Apply_EmptyValuesDropped(t *testing.T) {
	r, err := metadata.NewRegistry(nil)
	require.NoError(t, err)
	h, err := r.Handler("1.0")
	require.NoError(t, err)

	info := h.Apply(map[string][]string{
		"summary": {""},
		"license": {},
	})
	require.Empty(t, info)
}

func TestHandler_FormValues_RoundTrip(t *testing.T) {
	r, err := metadata.NewRegistry(nil)
	require.NoError(t, err)
	h, err := r.Handler("1.1")
	require.NoError(t, err)

	original := map[string][]string{
		"summary":     {"An example package"},
		"description": {"line one\nline two\nline three"},
		"classifier": {
			"Programming Language :: Python",
			"Development Status :: 4 - Beta",
		},
	}

	info := h.Apply(original)
	form := h.FormValues(info)
	require.Equal(t, original["summary"], form["summary"])
	require.Equal(t, original["description"], form["description"])
	require.Equal(t, original["classifier"], form["classifier"])

	// a second pass through Apply produces identical stored metadata
	require.Equal(t, info, h.Apply(form))
}

func TestPackageInfo_Accessors(t *testing.T) {
	info := models.PackageInfo{}
	info.Set("summary", "one line")
	require.Equal(t, "one line", info.Get("summary"))

	info.SetList("classifier", []string{"A", "B"})
	require.Equal(t, []string{"A", "B"}, info["classifier"])

	cp := info.Copy()
	cp.Set("summary", "changed")
	require.Equal(t, "one line", info.Get("summary"))
}
