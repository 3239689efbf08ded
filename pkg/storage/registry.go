package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// registry is the process-wide table of open files, keyed by absolute
// path. It lets two calls to Open (or Create then Open) on the same
// file share one *os.File and one file identity, instead of racing
// two independent streams against the same bytes on disk.
type registry struct {
	entries map[string]*registryEntry
	nextID  uint64
}

type registryEntry struct {
	file     *File
	refCount int
}

var defaultRegistry = &registry{entries: make(map[string]*registryEntry)}

func (r *registry) resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	return abs, nil
}

// Create creates a new file at path and returns a handle to it,
// failing with ErrFileExists if the path is already open or already
// exists on disk.
func Create(path string) (*File, error) {
	return defaultRegistry.create(path)
}

func (r *registry) create(path string) (*File, error) {
	abs, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if _, ok := r.entries[abs]; ok {
		return nil, fmt.Errorf("create %q: %w", path, ErrFileExists)
	}
	f, err := createFile(abs)
	if err != nil {
		return nil, err
	}
	r.nextID++
	f.id = r.nextID
	r.entries[abs] = &registryEntry{file: f, refCount: 1}
	return f, nil
}

// Open opens an existing file at path, sharing the underlying stream
// with any other handle already open on the same path. It fails with
// ErrFileNotFound if no such file exists and is not already open.
func Open(path string) (*File, error) {
	return defaultRegistry.open(path)
}

func (r *registry) open(path string) (*File, error) {
	abs, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if entry, ok := r.entries[abs]; ok {
		entry.refCount++
		return entry.file, nil
	}
	f, err := openFile(abs)
	if err != nil {
		return nil, err
	}
	r.nextID++
	f.id = r.nextID
	r.entries[abs] = &registryEntry{file: f, refCount: 1}
	return f, nil
}

// Close releases one reference to the file at path, closing the
// underlying stream once the last reference is released.
func Close(path string) error {
	return defaultRegistry.close(path)
}

func (r *registry) close(path string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	entry, ok := r.entries[abs]
	if !ok {
		return fmt.Errorf("close %q: %w", path, ErrFileNotFound)
	}
	entry.refCount--
	if entry.refCount > 0 {
		return nil
	}
	delete(r.entries, abs)
	return entry.file.close()
}

// Remove deletes the file at path, failing with ErrFileOpen if any
// handle to it is still outstanding, or ErrFileNotFound if it does not
// exist.
func Remove(path string) error {
	return defaultRegistry.remove(path)
}

func (r *registry) remove(path string) error {
	abs, err := r.resolve(path)
	if err != nil {
		return err
	}
	if _, ok := r.entries[abs]; ok {
		return fmt.Errorf("remove %q: %w", path, ErrFileOpen)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("remove %q: %w", path, ErrFileNotFound)
		}
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return os.Remove(abs)
}

// Exists reports whether path names a file that exists on disk,
// whether or not it is currently open.
func Exists(path string) bool {
	abs, err := defaultRegistry.resolve(path)
	if err != nil {
		return false
	}
	if _, ok := defaultRegistry.entries[abs]; ok {
		return true
	}
	_, err = os.Stat(abs)
	return err == nil
}

// IsOpen reports whether path currently has at least one outstanding
// handle.
func IsOpen(path string) bool {
	abs, err := defaultRegistry.resolve(path)
	if err != nil {
		return false
	}
	_, ok := defaultRegistry.entries[abs]
	return ok
}
