package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/innahunchenko/credcache"
)

func newOwnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner <lock-path>",
		Short: "Print the process recorded in a lock file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := credcache.ReadOwner(args[0])
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "not held")
				return nil
			}
			if errors.Is(err, credcache.ErrInvalidOwner) {
				fmt.Fprintln(cmd.OutOrStdout(), "no owner recorded")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pid %d\nprogram %s\n", owner.PID, owner.Program)
			return nil
		},
	}
}
