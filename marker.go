// Marker creation strategies.
//
// The marker is the lock path created with O_EXCL. Creation and the
// existence test are one syscall, so two processes can never both succeed.
// Where that guarantee is missing the strategy reports
// ErrAtomicCreateUnsupported and acquisition goes straight to the OS lock.
package credcache

import "os"

// MarkerFunc creates the marker at path. It must return an error matching
// fs.ErrExist when the file already exists and ErrAtomicCreateUnsupported
// when it cannot create atomically.
type MarkerFunc func(path string) error

// CreateMarker creates a zero-length marker with O_CREATE|O_EXCL.
func CreateMarker(path string) error {
	if !atomicCreate {
		return ErrAtomicCreateUnsupported
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFileMode)
	if err != nil {
		return err
	}
	return f.Close()
}

// UnsupportedMarker always reports ErrAtomicCreateUnsupported, disabling
// the marker phase.
func UnsupportedMarker(string) error {
	return ErrAtomicCreateUnsupported
}
