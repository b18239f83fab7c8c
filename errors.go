// Package credcache provides a cross-process file lock and a persisted
// credential cache guarded by it.
//
// The lock is built for processes that share an on-disk cache but not a
// runtime: a CLI written in Go, a desktop app on another stack, a
// background refresher. Each of them agrees only on a path. Acquisition
// first tries to create a zero-length marker at that path with O_EXCL,
// polling for a bounded time while another process holds it, then takes
// an exclusive OS advisory lock on the same path (flock, fcntl or
// LockFileEx depending on the platform). The OS lock is the only thing
// that guarantees mutual exclusion. The marker merely shortens the time a
// waiter spends blocked in the kernel and may be skipped entirely on
// platforms that cannot create files atomically.
//
// Cache sits on top: every read and write of the credential document runs
// while holding the lock at "<cache file>.lockfile", and the document is
// reloaded only when another process has changed it.
package credcache

import (
	"errors"
	"io/fs"
)

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// tell acquisition problems (ErrAcquire, ErrLockTimeout) from cleanup
// problems (ErrCleanup) and from cache content problems (ErrCorruptCache,
// ErrDecrypt, ErrDecompress).
var (
	ErrAcquire                 = errors.New("lock acquisition failed")
	ErrLockTimeout             = errors.New("timed out waiting for lock")
	ErrCleanup                 = errors.New("lock file cleanup failed")
	ErrAtomicCreateUnsupported = errors.New("atomic file creation not supported")
	ErrNotFound                = errors.New("entry not found")
	ErrEmptyKey                = errors.New("key cannot be empty")
	ErrPersistenceNotFound     = errors.New("persisted cache not found")
	ErrCorruptCache            = errors.New("corrupt cache document")
	ErrDecrypt                 = errors.New("decryption failed")
	ErrDecompress              = errors.New("decompression failed")
	ErrInvalidKey              = errors.New("invalid encryption key")
	ErrInvalidOwner            = errors.New("invalid owner record")
)

// removeResult classifies the outcome of deleting the lock file on
// release. Only removeFailed is reported to the caller.
type removeResult int

const (
	removeOK       removeResult = iota
	removeNotFound              // another releaser got there first, or the marker never existed
	removeDenied                // another process holds or recreated the file
	removeFailed
)

func (r removeResult) String() string {
	switch r {
	case removeOK:
		return "ok"
	case removeNotFound:
		return "not found"
	case removeDenied:
		return "denied"
	default:
		return "failed"
	}
}

// classifyRemove maps the error from os.Remove into a removeResult.
// Platform-specific denial codes live in isDenied.
func classifyRemove(err error) removeResult {
	switch {
	case err == nil:
		return removeOK
	case errors.Is(err, fs.ErrNotExist):
		return removeNotFound
	case isDenied(err):
		return removeDenied
	default:
		return removeFailed
	}
}
