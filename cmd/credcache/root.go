package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/innahunchenko/credcache"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	logLevel       string
	markerTimeout  time.Duration
	pollInterval   time.Duration
	acquireTimeout time.Duration
}

func (o *options) config(stderr io.Writer) (credcache.Config, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return credcache.Config{}, fmt.Errorf("invalid --log-level %q", o.logLevel)
	}
	return credcache.Config{
		MarkerTimeout:  o.markerTimeout,
		PollInterval:   o.pollInterval,
		AcquireTimeout: o.acquireTimeout,
		Logger:         slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "credcache",
		Short:         "Inspect and exercise cross-process credential cache locks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.DurationVar(&opts.markerTimeout, "marker-timeout", credcache.DefaultMarkerTimeout, "how long to poll for the marker file")
	pf.DurationVar(&opts.pollInterval, "poll-interval", credcache.DefaultPollInterval, "delay between lock attempts")
	pf.DurationVar(&opts.acquireTimeout, "acquire-timeout", 0, "bound on the OS lock wait (0 waits forever)")

	root.AddCommand(newHoldCmd(opts), newOwnerCmd(), newCacheCmd(opts))
	return root
}

// execute runs the CLI and returns the process exit code.
func execute(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "credcache:", err)
		return 1
	}
	return 0
}
