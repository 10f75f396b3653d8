package inmemory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	storagedriver "github.com/pkgvault/pkgvault/index/storage/driver"
	"github.com/pkgvault/pkgvault/index/storage/driver/factory"
)

const driverName = "inmemory"

func init() {
	factory.Register(driverName, &inMemoryDriverFactory{})
}

// inMemoryDriverFactory implements the factory.StorageDriverFactory interface.
type inMemoryDriverFactory struct{}

func (factory *inMemoryDriverFactory) Create(parameters map[string]interface{}) (storagedriver.StorageDriver, error) {
	return New(), nil
}

type file struct {
	data    []byte
	modTime time.Time
}

// driver is a storagedriver.StorageDriver implementation backed by a map of
// paths to byte slices. Intended solely for example and testing purposes.
type driver struct {
	mutex sync.RWMutex
	files map[string]*file
}

// Driver is a storagedriver.StorageDriver implementation backed by memory.
type Driver struct {
	*driver
}

// New constructs a new Driver.
func New() *Driver {
	return &Driver{driver: &driver{files: make(map[string]*file)}}
}

// Implement the storagedriver.StorageDriver interface.

func (d *driver) Name() string {
	return driverName
}

// GetContent retrieves the content stored at "path" as a []byte.
func (d *driver) GetContent(ctx context.Context, p string) ([]byte, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	f, ok := d.files[normalize(p)]
	if !ok {
		return nil, storagedriver.PathNotFoundError{Path: p, DriverName: driverName}
	}

	buf := make([]byte, len(f.data))
	copy(buf, f.data)
	return buf, nil
}

// PutContent stores the []byte content at a location designated by "path".
func (d *driver) PutContent(ctx context.Context, p string, contents []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.put(p, contents)
	return nil
}

func (d *driver) put(p string, contents []byte) {
	buf := make([]byte, len(contents))
	copy(buf, contents)
	d.files[normalize(p)] = &file{data: buf, modTime: time.Now()}
}

// Reader retrieves an io.ReadCloser for the content stored at "path" with a
// given byte offset.
func (d *driver) Reader(ctx context.Context, p string, offset int64) (io.ReadCloser, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	if offset < 0 {
		return nil, storagedriver.InvalidOffsetError{Path: p, Offset: offset, DriverName: driverName}
	}

	f, ok := d.files[normalize(p)]
	if !ok {
		return nil, storagedriver.PathNotFoundError{Path: p, DriverName: driverName}
	}

	if offset > int64(len(f.data)) {
		return nil, storagedriver.InvalidOffsetError{Path: p, Offset: offset, DriverName: driverName}
	}

	return ioutil.NopCloser(bytes.NewReader(f.data[offset:])), nil
}

// Writer returns a FileWriter which will store the content written to it at
// the location designated by "path" after the call to Commit.
func (d *driver) Writer(ctx context.Context, p string, append bool) (storagedriver.FileWriter, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	normalized := normalize(p)

	var buf []byte
	if append {
		if f, ok := d.files[normalized]; ok {
			buf = make([]byte, len(f.data))
			copy(buf, f.data)
		}
	}

	return &writer{d: d, path: normalized, buf: buf}, nil
}

// Stat returns info about the provided path.
func (d *driver) Stat(ctx context.Context, p string) (storagedriver.FileInfo, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	normalized := normalize(p)

	if f, ok := d.files[normalized]; ok {
		return storagedriver.FileInfoInternal{FileInfoFields: storagedriver.FileInfoFields{
			Path:    p,
			Size:    int64(len(f.data)),
			ModTime: f.modTime,
		}}, nil
	}

	// A path with stored descendants is a directory.
	prefix := normalized + "/"
	for stored := range d.files {
		if strings.HasPrefix(stored, prefix) {
			return storagedriver.FileInfoInternal{FileInfoFields: storagedriver.FileInfoFields{
				Path:  p,
				IsDir: true,
			}}, nil
		}
	}

	return nil, storagedriver.PathNotFoundError{Path: p, DriverName: driverName}
}

// List returns a list of the objects that are direct descendants of the
// given path.
func (d *driver) List(ctx context.Context, p string) ([]string, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	normalized := normalize(p)
	prefix := normalized + "/"
	if normalized == "/" {
		prefix = "/"
	}

	entries := make(map[string]struct{})
	for stored := range d.files {
		if !strings.HasPrefix(stored, prefix) {
			continue
		}
		rest := strings.TrimPrefix(stored, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		entries[path.Join(normalized, rest)] = struct{}{}
	}

	if len(entries) == 0 {
		return nil, storagedriver.PathNotFoundError{Path: p, DriverName: driverName}
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Move moves an object stored at sourcePath to destPath, removing the
// original object.
func (d *driver) Move(ctx context.Context, sourcePath string, destPath string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	source, dest := normalize(sourcePath), normalize(destPath)

	f, ok := d.files[source]
	if !ok {
		return storagedriver.PathNotFoundError{Path: sourcePath, DriverName: driverName}
	}

	delete(d.files, source)
	d.files[dest] = f
	return nil
}

// Delete recursively deletes all objects stored at "path" and its subpaths.
func (d *driver) Delete(ctx context.Context, p string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	normalized := normalize(p)
	prefix := normalized + "/"

	var found bool
	for stored := range d.files {
		if stored == normalized || strings.HasPrefix(stored, prefix) {
			delete(d.files, stored)
			found = true
		}
	}

	if !found {
		return storagedriver.PathNotFoundError{Path: p, DriverName: driverName}
	}
	return nil
}

func normalize(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

type writer struct {
	d         *driver
	path      string
	buf       []byte
	closed    bool
	committed bool
	cancelled bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("already closed")
	} else if w.committed {
		return 0, fmt.Errorf("already committed")
	} else if w.cancelled {
		return 0, fmt.Errorf("already cancelled")
	}

	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *writer) Size() int64 {
	return int64(len(w.buf))
}

func (w *writer) Close() error {
	if w.closed {
		return fmt.Errorf("already closed")
	}
	w.closed = true
	return nil
}

func (w *writer) Cancel() error {
	if w.closed {
		return fmt.Errorf("already closed")
	}
	w.cancelled = true
	w.buf = nil
	return nil
}

func (w *writer) Commit() error {
	if w.closed {
		return fmt.Errorf("already closed")
	} else if w.committed {
		return fmt.Errorf("already committed")
	} else if w.cancelled {
		return fmt.Errorf("already cancelled")
	}

	w.d.mutex.Lock()
	defer w.d.mutex.Unlock()

	w.d.put(w.path, w.buf)
	w.committed = true
	return nil
}
