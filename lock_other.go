//go:build !aix && !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !solaris && !windows

package credcache

import "errors"

// No advisory locking is available; acquisition fails in the
// authoritative phase with errors.ErrUnsupported.
const (
	atomicCreate       = false
	unlinkWhileHeld    = false
	processScopedLocks = false
)

func (l *fileLock) lock() error {
	return errors.ErrUnsupported
}

func (l *fileLock) tryLock() (bool, error) {
	return false, errors.ErrUnsupported
}

func (l *fileLock) unlock() error {
	return errors.ErrUnsupported
}
