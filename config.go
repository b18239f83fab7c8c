// Lock and cache configuration.
//
// Zero values select the defaults, so Config{} is a valid configuration.
package credcache

import (
	"log/slog"
	"os"
	"time"
)

// Defaults applied by withDefaults.
const (
	DefaultMarkerTimeout = 5 * time.Second
	DefaultPollInterval  = 250 * time.Millisecond
	DefaultFileMode      = os.FileMode(0o600)
)

// Config holds lock and cache options.
type Config struct {
	MarkerTimeout  time.Duration    // Max time spent polling for the marker (default 5s)
	PollInterval   time.Duration    // Sleep between marker and bounded lock attempts (default 250ms)
	AcquireTimeout time.Duration    // Bound on the OS lock wait; 0 waits forever
	FileMode       os.FileMode      // Permissions for created files (default 0600)
	Program        string           // Program recorded in the owner line (default os.Args[0])
	Marker         MarkerFunc       // Marker creation strategy (default CreateMarker)
	Logger         *slog.Logger     // Diagnostics (default slog.Default())
	Now            func() time.Time // Clock for cache expiry (default time.Now)
}

func (c Config) withDefaults() Config {
	if c.MarkerTimeout <= 0 {
		c.MarkerTimeout = DefaultMarkerTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FileMode == 0 {
		c.FileMode = DefaultFileMode
	}
	if c.Program == "" && len(os.Args) > 0 {
		c.Program = os.Args[0]
	}
	if c.Marker == nil {
		c.Marker = CreateMarker
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}
