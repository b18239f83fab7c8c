// In-process serialisation of lock paths.
//
// fcntl record locks belong to the process, not to the open file: a second
// descriptor in the same process is granted the lock at once, and closing
// any descriptor on the file drops every lock the process holds on it. On
// those platforms a Lock therefore passes through a per-path gate before it
// touches the file, so no other Lock in the process opens (and later
// closes) the path while it is held.
package credcache

import (
	"context"
	"path/filepath"
	"sync"
)

// pathGates maps an absolute lock path to a single-slot semaphore.
var pathGates sync.Map

func gateKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// enterGate waits until no other Lock in this process holds path, or ctx
// is done. The returned func gives the gate back.
func enterGate(ctx context.Context, path string) (func(), error) {
	v, _ := pathGates.LoadOrStore(gateKey(path), make(chan struct{}, 1))
	gate := v.(chan struct{})
	select {
	case gate <- struct{}{}:
		return func() { <-gate }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
