// File persistence.
//
// Save must replace the cache file atomically: readers either see the
// old document or the new one. These tests check the observable parts of
// that contract: content, permissions, no leftover temporary files, and
// the not-found signal Cache relies on to treat a missing file as empty.
package credcache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestFilePersistenceSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "cache.bin")
	p := NewFilePersistence(path)

	if err := p.Save([]byte("first")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := p.Save([]byte("second")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := p.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(got, []byte("second")) {
		t.Errorf("Load = %q, want %q", got, "second")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFilePersistenceMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "cache.bin")
	if err := NewFilePersistence(path).Save([]byte("x")); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("mode = %v, want 0600", perm)
	}
}

func TestFilePersistenceNotFound(t *testing.T) {
	p := NewFilePersistence(filepath.Join(t.TempDir(), "missing.bin"))

	if _, err := p.Load(); !errors.Is(err, ErrPersistenceNotFound) {
		t.Errorf("Load = %v, want ErrPersistenceNotFound", err)
	}
	if _, err := p.Modified(); !errors.Is(err, ErrPersistenceNotFound) {
		t.Errorf("Modified = %v, want ErrPersistenceNotFound", err)
	}
}

func TestFilePersistenceModified(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.bin")
	p := NewFilePersistence(path)
	if err := p.Save([]byte("x")); err != nil {
		t.Fatal(err)
	}

	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	mod, err := p.Modified()
	if err != nil {
		t.Fatalf("Modified: %v", err)
	}
	if !mod.Equal(old) {
		t.Errorf("Modified = %v, want %v", mod, old)
	}
}

func TestLockPath(t *testing.T) {
	p := NewFilePersistence("/var/cache/app/msal.bin")
	if got := LockPath(p); got != "/var/cache/app/msal.bin.lockfile" {
		t.Errorf("LockPath = %q", got)
	}
	wrapped := NewCompressedPersistence(p)
	if LockPath(wrapped) != LockPath(p) {
		t.Error("wrapping changed the lock path")
	}
}
