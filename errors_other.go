//go:build !windows

package credcache

import (
	"errors"
	"io/fs"
)

// isDenied matches EACCES and EPERM, e.g. a sticky directory where another
// user recreated the lock file.
func isDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
