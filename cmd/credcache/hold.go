package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/innahunchenko/credcache"
)

func newHoldCmd(opts *options) *cobra.Command {
	var holdFor time.Duration
	cmd := &cobra.Command{
		Use:   "hold <lock-path>",
		Short: "Acquire a lock and hold it",
		Long: `Acquire the lock at <lock-path>, print the owner record and hold the
lock until --for elapses or the process is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lock := credcache.New(args[0], cfg)
			start := time.Now()
			return lock.Do(ctx, func(f *os.File) error {
				data := make([]byte, 512)
				n, _ := f.ReadAt(data, 0)
				fmt.Fprintf(cmd.OutOrStdout(), "acquired %s after %s: %s\n",
					args[0], time.Since(start).Round(time.Millisecond), data[:n])

				if holdFor <= 0 {
					<-ctx.Done()
					return nil
				}
				select {
				case <-ctx.Done():
				case <-time.After(holdFor):
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&holdFor, "for", 5*time.Second, "how long to hold the lock (0 holds until interrupted)")
	return cmd
}
