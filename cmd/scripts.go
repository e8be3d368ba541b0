package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/store/bolt"
	"github.com/spf13/cobra"
)

func openStore(ctx context.Context) (*bolt.Store, error) {
	opt := config.FromContext(ctx).Store
	opt.ExpireInterval = -1
	return bolt.Open(opt)
}

// withStore runs fn with the store opened for the duration of the command.
func withStore(fn func(cmd *cobra.Command, store *bolt.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

func newScriptsCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:     "scripts",
		Aliases: []string{"script"},
		Short:   "manage the stored scripts",
	}

	put := &cobra.Command{
		Use:   "put <name> [file|-]",
		Short: "store a script from a file or stdin",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withStore(func(cmd *cobra.Command, store *bolt.Store, args []string) error {
			var (
				b   []byte
				err error
			)
			if len(args) == 1 || args[1] == "-" {
				b, err = io.ReadAll(cmd.InOrStdin())
			} else {
				b, err = os.ReadFile(args[1])
			}
			if err != nil {
				return err
			}
			return store.PutWithTimeout(args[0], string(b), ttl)
		}),
	}
	put.Flags().DurationVar(&ttl, "ttl", 0, "forget the script after the duration")

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "print a stored script",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *bolt.Store, args []string) error {
			source, err := store.Get(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), source)
			return nil
		}),
	}

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list the stored scripts",
		Args:    cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, store *bolt.Store, _ []string) error {
			names, err := store.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		}),
	}

	rm := &cobra.Command{
		Use:     "rm <name>...",
		Aliases: []string{"delete"},
		Short:   "delete stored scripts",
		Args:    cobra.MinimumNArgs(1),
		RunE: withStore(func(_ *cobra.Command, store *bolt.Store, args []string) error {
			for _, name := range args {
				if err := store.Delete(name); err != nil {
					return err
				}
			}
			return nil
		}),
	}

	cmd.AddCommand(put, get, list, rm)
	return cmd
}
