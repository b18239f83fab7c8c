// Content digests for persisted cache documents.
//
// Cache keeps the digest of the last document it decoded or wrote. When a
// reload returns the same bytes (another process touched the file but
// rewrote identical content) the decode is skipped.
package credcache

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

func digest(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Fingerprint returns a 16 hex character digest of data, suitable for
// showing whether two cache files hold the same document.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", digest(data))
}
