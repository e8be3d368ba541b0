package cmd

import (
	"fmt"

	"github.com/shiroyk/mqjs"
	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/scripts"
	"github.com/spf13/cobra"
)

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "examples [name]",
		Aliases:   []string{"example"},
		Short:     "list the bundled examples or run one",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: scripts.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range scripts.Names() {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}
			if args[0] == "hello" {
				return mqjs.Hello(cmd.Context(), cmd.OutOrStdout())
			}
			source, err := scripts.Get(args[0])
			if err != nil {
				return err
			}
			opt := config.FromContext(cmd.Context()).JS.Runner
			opt.Filename = args[0] + ".js"
			return runSource(cmd, opt, source)
		},
	}
}
