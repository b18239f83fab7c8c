//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package credcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

// TestReleaseCleanupFailure replaces the held lock file with a non-empty
// directory so the delete fails with something other than not-found or
// permission denied. Release must report ErrCleanup, and the flock on the
// original file must already be gone.
func TestReleaseCleanupFailure(t *testing.T) {
	path := lockPath(t)
	h := mustAcquire(t, New(path, testConfig()))

	// A second open file description on the same inode; flock on it only
	// succeeds once h has unlocked.
	old, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer old.Close()
	if err := unix.Flock(int(old.Fd()), unix.LOCK_EX|unix.LOCK_NB); err == nil {
		t.Fatal("flock on held file succeeded before Release")
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "keep"), nil, 0o600); err != nil {
		t.Fatal(err)
	}

	err = h.Release()
	if !errors.Is(err, ErrCleanup) {
		t.Fatalf("Release = %v, want ErrCleanup", err)
	}
	if err := unix.Flock(int(old.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Errorf("flock after failed cleanup: %v, want lock released", err)
	}
}
