//go:build aix || solaris

package credcache

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// No flock(2) here, so the whole file is locked as an fcntl range
// (Start 0, Len 0 means "to end of file, however large").
//
// fcntl locks are per process and any close of the file releases them, so
// Locks in one process are serialised by enterGate before they open the
// path. Code outside this package must not open a held lock file from the
// holding process (ReadOwner included); doing so drops the lock.
const (
	atomicCreate       = true
	unlinkWhileHeld    = true
	processScopedLocks = true
)

func wholeFile(typ int16) *unix.Flock_t {
	return &unix.Flock_t{Type: typ, Whence: io.SeekStart}
}

func (l *fileLock) lock() error {
	for {
		err := unix.FcntlFlock(l.f.Fd(), unix.F_SETLKW, wholeFile(unix.F_WRLCK))
		if err != unix.EINTR {
			return err
		}
	}
}

func (l *fileLock) tryLock() (bool, error) {
	err := unix.FcntlFlock(l.f.Fd(), unix.F_SETLK, wholeFile(unix.F_WRLCK))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) {
		return false, nil
	}
	return false, err
}

func (l *fileLock) unlock() error {
	return unix.FcntlFlock(l.f.Fd(), unix.F_SETLK, wholeFile(unix.F_UNLCK))
}
