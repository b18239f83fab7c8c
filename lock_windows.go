//go:build windows

package credcache

import (
	"errors"
	"math"

	"golang.org/x/sys/windows"
)

// LockFileEx over the whole addressable range. Windows refuses to delete a
// file another handle has open, so the file is only removed after close.
const (
	atomicCreate       = true
	unlinkWhileHeld    = false
	processScopedLocks = false
)

func (l *fileLock) lockEx(flags uint32) error {
	ol := new(windows.Overlapped)
	return windows.LockFileEx(windows.Handle(l.f.Fd()), flags, 0, math.MaxUint32, math.MaxUint32, ol)
}

func (l *fileLock) lock() error {
	return l.lockEx(windows.LOCKFILE_EXCLUSIVE_LOCK)
}

func (l *fileLock) tryLock() (bool, error) {
	err := l.lockEx(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return false, nil
	}
	return false, err
}

func (l *fileLock) unlock() error {
	ol := new(windows.Overlapped)
	return windows.UnlockFileEx(windows.Handle(l.f.Fd()), 0, math.MaxUint32, math.MaxUint32, ol)
}
