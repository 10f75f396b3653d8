package inmemory

import (
	"context"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/require"

	storagedriver "github.com/pkgvault/pkgvault/index/storage/driver"
)

func TestDriver_PutGetContent(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/dir/file", []byte("content")))

	got, err := d.GetContent(ctx, "/dir/file")
	require.NoError(t, err)
	require.Equal(t, "content", string(got))
}

func TestDriver_GetContent_NotFound(t *testing.T) {
	d := New()

	_, err := d.GetContent(context.Background(), "/missing")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
}

func TestDriver_Writer(t *testing.T) {
	d := New()
	ctx := context.Background()

	fw, err := d.Writer(ctx, "/dir/file", false)
	require.NoError(t, err)

	n, err := fw.Write([]byte("hello "))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	_, err = fw.Write([]byte("world"))
	require.NoError(t, err)
	require.Equal(t, int64(11), fw.Size())

	// nothing visible before Commit
	_, err = d.GetContent(ctx, "/dir/file")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))

	require.NoError(t, fw.Commit())
	require.NoError(t, fw.Close())

	got, err := d.GetContent(ctx, "/dir/file")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}

func TestDriver_Writer_Cancel(t *testing.T) {
	d := New()
	ctx := context.Background()

	fw, err := d.Writer(ctx, "/dir/file", false)
	require.NoError(t, err)
	_, err = fw.Write([]byte("discarded"))
	require.NoError(t, err)
	require.NoError(t, fw.Cancel())

	_, err = d.GetContent(ctx, "/dir/file")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
}

func TestDriver_Reader_Offset(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/file", []byte("0123456789")))

	rc, err := d.Reader(ctx, "/file", 5)
	require.NoError(t, err)
	defer rc.Close()

	got, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, "56789", string(got))

	_, err = d.Reader(ctx, "/file", -1)
	require.True(t, errors.As(err, &storagedriver.InvalidOffsetError{}))

	_, err = d.Reader(ctx, "/file", 11)
	require.True(t, errors.As(err, &storagedriver.InvalidOffsetError{}))
}

func TestDriver_Stat(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/dir/file", []byte("content")))

	fi, err := d.Stat(ctx, "/dir/file")
	require.NoError(t, err)
	require.False(t, fi.IsDir())
	require.Equal(t, int64(7), fi.Size())

	fi, err = d.Stat(ctx, "/dir")
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	_, err = d.Stat(ctx, "/missing")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
}

func TestDriver_List(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/dir/a", []byte("a")))
	require.NoError(t, d.PutContent(ctx, "/dir/b", []byte("b")))
	require.NoError(t, d.PutContent(ctx, "/dir/sub/c", []byte("c")))

	entries, err := d.List(ctx, "/dir")
	require.NoError(t, err)
	require.Equal(t, []string{"/dir/a", "/dir/b", "/dir/sub"}, entries)
}

func TestDriver_Move(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/src", []byte("content")))
	require.NoError(t, d.Move(ctx, "/src", "/dst"))

	_, err := d.GetContent(ctx, "/src")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))

	got, err := d.GetContent(ctx, "/dst")
	require.NoError(t, err)
	require.Equal(t, "content", string(got))

	err = d.Move(ctx, "/missing", "/elsewhere")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
}

func TestDriver_Delete(t *testing.T) {
	d := New()
	ctx := context.Background()

	require.NoError(t, d.PutContent(ctx, "/dir/a", []byte("a")))
	require.NoError(t, d.PutContent(ctx, "/dir/sub/b", []byte("b")))

	require.NoError(t, d.Delete(ctx, "/dir"))

	_, err := d.GetContent(ctx, "/dir/a")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
	_, err = d.GetContent(ctx, "/dir/sub/b")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))

	err = d.Delete(ctx, "/dir")
	require.True(t, errors.As(err, &storagedriver.PathNotFoundError{}))
}
