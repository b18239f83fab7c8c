package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/innahunchenko/credcache"
)

// storeFlags select the persistence stack for a cache file.
type storeFlags struct {
	passphrase string
	compress   bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.passphrase, "passphrase", os.Getenv("CREDCACHE_PASSPHRASE"),
		"encrypt the cache with this passphrase (env CREDCACHE_PASSPHRASE)")
	cmd.PersistentFlags().BoolVar(&f.compress, "compress", false, "zstd-compress the cache document")
}

// open builds the store for path. The key salt is derived from the file
// name so the same passphrase opens the file from any process.
func (f *storeFlags) open(path string) (credcache.Persistence, error) {
	var store credcache.Persistence = credcache.NewFilePersistence(path)
	if f.passphrase != "" {
		key := credcache.KeyFromPassphrase(f.passphrase, []byte("credcache:"+filepath.Base(path)))
		enc, err := credcache.NewEncryptedPersistence(store, key)
		if err != nil {
			return nil, err
		}
		store = enc
	}
	if f.compress {
		store = credcache.NewCompressedPersistence(store)
	}
	return store, nil
}

func newCacheCmd(opts *options) *cobra.Command {
	sf := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Read and edit a persisted credential cache",
	}
	sf.register(cmd)

	openCache := func(cmd *cobra.Command, path string) (*credcache.Cache, error) {
		cfg, err := opts.config(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		store, err := sf.open(path)
		if err != nil {
			return nil, err
		}
		return credcache.OpenCache(store, cfg), nil
	}

	list := &cobra.Command{
		Use:   "list <cache-file>",
		Short: "List unexpired entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, args[0])
			if err != nil {
				return err
			}
			keys, err := c.Keys(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tKIND\tEXPIRES")
			for _, k := range keys {
				e, err := c.Get(cmd.Context(), k)
				if err != nil {
					continue // expired or removed since Keys
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", k, e.Kind, expiry(e))
			}
			return w.Flush()
		},
	}

	get := &cobra.Command{
		Use:   "get <cache-file> <key>",
		Short: "Print one entry as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, args[0])
			if err != nil {
				return err
			}
			e, err := c.Get(cmd.Context(), args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			out, err := json.MarshalIndent(e, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	var entry credcache.Entry
	var expiresIn time.Duration
	set := &cobra.Command{
		Use:   "set <cache-file> <key>",
		Short: "Store an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, args[0])
			if err != nil {
				return err
			}
			e := entry
			if expiresIn > 0 {
				e.ExpiresAt = time.Now().Add(expiresIn).Unix()
			}
			return c.Set(cmd.Context(), args[1], e)
		},
	}
	set.Flags().StringVar(&entry.Kind, "kind", credcache.KindAccessToken, "entry kind")
	set.Flags().StringVar(&entry.Secret, "secret", "", "secret value")
	set.Flags().StringToStringVar(&entry.Attrs, "attr", nil, "extra attributes (key=value)")
	set.Flags().DurationVar(&expiresIn, "expires-in", 0, "lifetime of the entry (0 never expires)")

	del := &cobra.Command{
		Use:   "delete <cache-file> <key>",
		Short: "Remove an entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, args[0])
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), args[1]); err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			return nil
		},
	}

	purge := &cobra.Command{
		Use:   "purge <cache-file>",
		Short: "Remove expired entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(cmd, args[0])
			if err != nil {
				return err
			}
			n, err := c.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, get, set, del, purge)
	return cmd
}

func expiry(e credcache.Entry) string {
	if e.ExpiresAt == 0 {
		return "never"
	}
	return time.Unix(e.ExpiresAt, 0).UTC().Format(time.RFC3339)
}
