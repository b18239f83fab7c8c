// credcache inspects and exercises credcache lock files and caches.
//
// Usage:
//
//	credcache hold /path/to/cache.bin.lockfile --for 10s
//	credcache owner /path/to/cache.bin.lockfile
//	credcache cache list /path/to/cache.bin
//	credcache cache set /path/to/cache.bin refresh_token/app --kind refresh_token --secret ...
//
// hold is mainly useful for checking that another implementation sharing
// the lock path blocks while this process holds it.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:]))
}
