package storage_test

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/require"

	"github.com/pkgvault/pkgvault/index/storage"
	"github.com/pkgvault/pkgvault/index/storage/driver/inmemory"
)

func md5Hex(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func TestArtifactStore_Put(t *testing.T) {
	driver := inmemory.New()
	s := storage.NewArtifactStore(driver)
	ctx := context.Background()

	content := "fake sdist bytes"
	desc, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader(content), "")
	require.NoError(t, err)

	require.Equal(t, md5Hex(content), desc.MD5Digest)
	require.Equal(t, digest.FromString(content), desc.Digest)
	require.Equal(t, int64(len(content)), desc.Size)
	require.True(t, strings.HasPrefix(desc.Path, "/artifacts/sha256/"))
	require.True(t, strings.HasSuffix(desc.Path, "/lib-a-1.0.0.tar.gz"))

	rc, err := s.Reader(ctx, desc.Path)
	require.NoError(t, err)
	defer rc.Close()

	stored, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, content, string(stored))
}

func TestArtifactStore_Put_DeclaredDigestMatch(t *testing.T) {
	s := storage.NewArtifactStore(inmemory.New())
	ctx := context.Background()

	content := "fake wheel bytes"
	desc, err := s.Put(ctx, "lib_a-1.0.0-py3-none-any.whl", strings.NewReader(content), md5Hex(content))
	require.NoError(t, err)
	require.Equal(t, md5Hex(content), desc.MD5Digest)
}

func TestArtifactStore_Put_DigestMismatch(t *testing.T) {
	driver := inmemory.New()
	s := storage.NewArtifactStore(driver)
	ctx := context.Background()

	_, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader("actual content"), md5Hex("declared content"))
	require.ErrorIs(t, err, storage.ErrDigestMismatch)

	// nothing was persisted, neither a final artifact nor the temporary
	// upload
	_, err = driver.List(ctx, "/")
	require.Error(t, err)
}

func TestArtifactStore_Put_SameContentTwice(t *testing.T) {
	s := storage.NewArtifactStore(inmemory.New())
	ctx := context.Background()

	content := "identical bytes"
	first, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader(content), "")
	require.NoError(t, err)

	second, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader(content), "")
	require.NoError(t, err)

	// content addressing makes re-uploads land on the same path
	require.Equal(t, first.Path, second.Path)
	require.Equal(t, first.Digest, second.Digest)
}

func TestArtifactStore_Reader_Unknown(t *testing.T) {
	s := storage.NewArtifactStore(inmemory.New())

	_, err := s.Reader(context.Background(), "/artifacts/sha256/ab/abcd/missing.tar.gz")
	require.ErrorIs(t, err, storage.ErrArtifactUnknown)
}

func TestArtifactStore_Stat(t *testing.T) {
	s := storage.NewArtifactStore(inmemory.New())
	ctx := context.Background()

	content := "some artifact"
	desc, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader(content), "")
	require.NoError(t, err)

	size, err := s.Stat(ctx, desc.Path)
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), size)

	_, err = s.Stat(ctx, "/artifacts/sha256/ab/abcd/missing.tar.gz")
	require.ErrorIs(t, err, storage.ErrArtifactUnknown)
}

func TestArtifactStore_Delete(t *testing.T) {
	s := storage.NewArtifactStore(inmemory.New())
	ctx := context.Background()

	desc, err := s.Put(ctx, "lib-a-1.0.0.tar.gz", strings.NewReader("bytes"), "")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, desc.Path))

	_, err = s.Reader(ctx, desc.Path)
	require.ErrorIs(t, err, storage.ErrArtifactUnknown)

	// deleting an already absent path is not an error
	require.NoError(t, s.Delete(ctx, desc.Path))
}
