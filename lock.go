// Cross-process exclusive lock on a single path.
//
// Acquisition has two phases. The marker phase tries to create the lock
// path with O_EXCL, polling while it already exists, and gives up after
// Config.MarkerTimeout without failing. The authoritative phase opens the
// same path and takes an exclusive OS advisory lock on it, waiting as long
// as it takes unless a timeout or cancellable context is supplied. Only the
// second phase provides mutual exclusion; independent implementations that
// share the path must honour the same OS lock.
//
// Once locked, the file is truncated and stamped with "<pid> <program>" for
// diagnostics. Release deletes the path and drops the lock. On POSIX the
// path is unlinked while the lock is still held, so a waiter woken by the
// unlock finds its file orphaned and reopens; on Windows, where an open file
// cannot be deleted, the handle is unlocked and closed first. Deletion races
// with other processes are expected and swallowed.
package credcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"
)

// fileLock coordinates OS-level file locks with safe handle teardown.
// The mu field serialises lock syscalls against setFile so that a
// concurrent Release cannot invalidate the fd mid-syscall.
type fileLock struct {
	mu sync.Mutex
	f  *os.File
}

// Lock acquires an exclusive lock, blocking until it is granted. Returns
// nil immediately if the handle has been cleared via setFile(nil).
func (l *fileLock) Lock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.lock()
}

// TryLock makes a single non-blocking attempt. It reports false without an
// error when another handle holds the lock.
func (l *fileLock) TryLock() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return false, os.ErrClosed
	}
	return l.tryLock()
}

// Unlock releases the lock. Returns nil immediately if the handle
// has been cleared via setFile(nil).
func (l *fileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	return l.unlock()
}

// setFile swaps the underlying file handle. Passing nil drains any
// in-flight lock call and disables further locking.
func (l *fileLock) setFile(f *os.File) {
	l.mu.Lock()
	l.f = f
	l.mu.Unlock()
}

// errMarkerTimeout ends the marker phase once Config.MarkerTimeout elapses.
var errMarkerTimeout = errors.New("lock file still present after marker timeout")

// Lock is a cross-process exclusive lock identified by a file path.
// A Lock is not safe for concurrent use by multiple goroutines; give each
// goroutine its own Lock on the same path instead.
type Lock struct {
	path string
	cfg  Config
	pid  int
}

// New returns a Lock for path. No I/O happens until Acquire.
func New(path string, cfg Config) *Lock {
	return &Lock{
		path: path,
		cfg:  cfg.withDefaults(),
		pid:  os.Getpid(),
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held. With the default Config the wait
// is unbounded.
func (l *Lock) Acquire() (*Handle, error) {
	return l.AcquireContext(context.Background())
}

// AcquireContext is Acquire with cancellation. A cancellable ctx (or a
// non-zero Config.AcquireTimeout) switches the authoritative phase from a
// blocking lock call to non-blocking attempts every Config.PollInterval.
func (l *Lock) AcquireContext(ctx context.Context) (*Handle, error) {
	leave, err := l.enterProcess(ctx)
	if err != nil {
		return nil, err
	}
	fl, err := l.acquire(ctx)
	if err != nil {
		leave()
		return nil, err
	}

	h := &Handle{lock: l, fl: fl, file: fl.f, leave: leave}
	if err := h.stamp(); err != nil {
		return nil, errors.Join(fmt.Errorf("%w: write owner: %w", ErrAcquire, err), h.Release())
	}
	return h, nil
}

// enterProcess passes the in-process gate on platforms whose OS locks are
// per process. Elsewhere it is a no-op.
func (l *Lock) enterProcess(ctx context.Context) (func(), error) {
	if !processScopedLocks {
		return func() {}, nil
	}
	if l.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.AcquireTimeout)
		defer cancel()
	}
	leave, err := enterGate(ctx, l.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, l.path, err)
	}
	return leave, nil
}

// acquire runs both phases and returns the locked file.
func (l *Lock) acquire(ctx context.Context) (*fileLock, error) {
	switch err := l.waitMarker(ctx); {
	case err == nil:
	case errors.Is(err, ErrAtomicCreateUnsupported):
		l.cfg.Logger.Warn("atomic lock file creation not supported, relying on OS lock only",
			"pid", l.pid, "path", l.path)
	case errors.Is(err, errMarkerTimeout):
		l.cfg.Logger.Warn("failed to create lock file",
			"pid", l.pid, "path", l.path, "holder", holderPID(l.path))
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, l.path, ctx.Err())
	default:
		// The open below reports the real problem if there is one.
		l.cfg.Logger.Debug("lock file marker unavailable",
			"pid", l.pid, "path", l.path, "err", err)
	}
	return l.lockFile(ctx)
}

// Do runs fn while holding the lock. The lock is released on every exit
// path, including panics in fn. Errors from fn and from release are joined.
func (l *Lock) Do(ctx context.Context, fn func(f *os.File) error) (err error) {
	h, err := l.AcquireContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, h.Release())
	}()
	return fn(h.File())
}

// waitMarker runs the marker phase. It returns nil once the marker is
// created, errMarkerTimeout when the deadline passes, or whatever the
// marker strategy reported for anything other than contention.
func (l *Lock) waitMarker(ctx context.Context) error {
	deadline := time.Now().Add(l.cfg.MarkerTimeout)
	for {
		err := l.cfg.Marker(l.path)
		if !errors.Is(err, fs.ErrExist) {
			return err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return errMarkerTimeout
		}
		wait := min(l.cfg.PollInterval, remaining)
		l.cfg.Logger.Debug("found existing lock file, will retry",
			"pid", l.pid, "path", l.path, "holder", holderPID(l.path), "retry_after", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// lockFile runs the authoritative phase. If the path was unlinked or
// replaced while we waited, the granted lock is on an orphaned file, so it
// is dropped and the open is retried against whatever now lives at path.
func (l *Lock) lockFile(ctx context.Context) (*fileLock, error) {
	if l.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.AcquireTimeout)
		defer cancel()
	}

	for {
		f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, l.cfg.FileMode)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrAcquire, l.path, err)
		}
		fl := &fileLock{f: f}

		if err := l.wait(ctx, fl); err != nil {
			f.Close()
			return nil, err
		}

		same, err := sameFile(f, l.path)
		if err != nil {
			fl.Unlock()
			f.Close()
			return nil, fmt.Errorf("%w: stat %s: %w", ErrAcquire, l.path, err)
		}
		if same {
			return fl, nil
		}

		l.cfg.Logger.Debug("lock file replaced while waiting, retrying", "pid", l.pid, "path", l.path)
		fl.Unlock()
		f.Close()
	}
}

// wait takes the OS lock on fl. Without a way to be cancelled it makes a
// single blocking call; otherwise it polls.
func (l *Lock) wait(ctx context.Context, fl *fileLock) error {
	if ctx.Done() == nil {
		if err := fl.Lock(); err != nil {
			return fmt.Errorf("%w: lock %s: %w", ErrAcquire, l.path, err)
		}
		return nil
	}

	for {
		ok, err := fl.TryLock()
		if err != nil {
			return fmt.Errorf("%w: lock %s: %w", ErrAcquire, l.path, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %w", ErrLockTimeout, l.path, ctx.Err())
		case <-time.After(l.cfg.PollInterval):
		}
	}
}

// sameFile reports whether f is still the file found at path.
func sameFile(f *os.File, path string) (bool, error) {
	held, err := f.Stat()
	if err != nil {
		return false, err
	}
	current, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return os.SameFile(held, current), nil
}

// Handle is a held lock. Release it exactly once; further calls are no-ops.
type Handle struct {
	lock     *Lock
	fl       *fileLock
	file     *os.File
	leave    func()
	released bool
}

// File returns the locked file. It stays valid until Release.
func (h *Handle) File() *os.File {
	return h.file
}

// stamp replaces the file content with the owner record.
func (h *Handle) stamp() error {
	return writeOwner(h.file, Owner{PID: h.lock.pid, Program: h.lock.cfg.Program})
}

// writeOwner is a variable so tests can make the owner write fail.
var writeOwner = func(f *os.File, o Owner) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(o.String()), 0)
	return err
}

// Release drops the OS lock and deletes the lock file. A missing file or a
// permission conflict on delete means another process is already using the
// path and is not reported. Any other delete failure is returned wrapped in
// ErrCleanup; the OS lock has been released by then regardless.
func (h *Handle) Release() error {
	if h.released {
		return nil
	}
	h.released = true

	var errs []error
	if unlinkWhileHeld {
		// Unlinking before unlock makes any waiter already blocked on this
		// file fail its identity check and reopen the path.
		errs = append(errs, h.remove())
	}
	if err := h.fl.Unlock(); err != nil {
		h.lock.cfg.Logger.Debug("unlock failed, close will release", "path", h.lock.path, "err", err)
	}
	h.fl.setFile(nil)
	if err := h.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", h.lock.path, err))
	}
	if !unlinkWhileHeld {
		errs = append(errs, h.remove())
	}
	h.leave()
	return errors.Join(errs...)
}

func (h *Handle) remove() error {
	err := os.Remove(h.lock.path)
	switch r := classifyRemove(err); r {
	case removeOK:
		return nil
	case removeNotFound, removeDenied:
		h.lock.cfg.Logger.Debug("lock file cleanup skipped",
			"pid", h.lock.pid, "path", h.lock.path, "reason", r.String())
		return nil
	default:
		return fmt.Errorf("%w: %w", ErrCleanup, err)
	}
}
