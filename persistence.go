// Durable storage for the cache document.
//
// FilePersistence never rewrites the cache file in place. Save writes a
// temporary file in the same directory, syncs it and renames it over the
// target, so a crash mid-save leaves either the old document or the new
// one, never a torn mix. At worst an orphaned temporary file remains.
package credcache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Persistence stores the serialised cache document. Implementations are
// called with the cross-process lock held.
type Persistence interface {
	Save(data []byte) error
	Load() ([]byte, error)        // ErrPersistenceNotFound if nothing saved yet
	Modified() (time.Time, error) // ErrPersistenceNotFound if nothing saved yet
	Location() string             // Path the lock file is derived from
}

// LockPath returns the lock file used to guard p.
func LockPath(p Persistence) string {
	return p.Location() + ".lockfile"
}

// FilePersistence stores the document as a plain file.
type FilePersistence struct {
	path string
	mode os.FileMode
}

// NewFilePersistence stores the document at path with mode 0600.
func NewFilePersistence(path string) *FilePersistence {
	return &FilePersistence{path: path, mode: DefaultFileMode}
}

func (p *FilePersistence) Save(data []byte) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save: create temp: %w", err)
	}
	name := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(name)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("save: write: %w", err)
	}
	if err := tmp.Chmod(p.mode); err != nil {
		cleanup()
		return fmt.Errorf("save: chmod: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("save: close: %w", err)
	}
	if err := os.Rename(name, p.path); err != nil {
		os.Remove(name)
		return fmt.Errorf("save: rename: %w", err)
	}
	return nil
}

func (p *FilePersistence) Load() ([]byte, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPersistenceNotFound, p.path)
	}
	return data, err
}

func (p *FilePersistence) Modified() (time.Time, error) {
	info, err := os.Stat(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrPersistenceNotFound, p.path)
	}
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (p *FilePersistence) Location() string {
	return p.path
}
