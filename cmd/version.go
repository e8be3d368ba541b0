package cmd

import (
	"fmt"

	"github.com/shiroyk/mqjs/lib"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%v\n mqjs %v/%v\n", lib.Banner, lib.Version, lib.CommitSHA)
		},
	}
}
