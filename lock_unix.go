//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package credcache

import (
	"errors"

	"golang.org/x/sys/unix"
)

// flock(2) on this platform; O_EXCL is atomic on local filesystems.
const (
	atomicCreate       = true
	unlinkWhileHeld    = true
	processScopedLocks = false
)

func (l *fileLock) lock() error {
	for {
		err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
		if err != unix.EINTR {
			return err
		}
	}
}

func (l *fileLock) tryLock() (bool, error) {
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == nil {
		return true, nil
	}
	// Some older systems report EAGAIN instead of EWOULDBLOCK.
	if errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN) {
		return false, nil
	}
	return false, err
}

func (l *fileLock) unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
