//go:build windows

package credcache

import (
	"errors"

	"golang.org/x/sys/windows"
)

// isDenied matches a delete refused because another handle has the file
// open (sharing violation) or it is otherwise inaccessible.
func isDenied(err error) bool {
	return errors.Is(err, windows.ERROR_ACCESS_DENIED) ||
		errors.Is(err, windows.ERROR_SHARING_VIOLATION)
}
