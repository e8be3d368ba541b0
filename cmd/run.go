package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/lib/utils"
	"github.com/spf13/cobra"
)

type runFlags struct {
	arena   string
	timeout time.Duration
	strict  bool
	name    string
	eval    string
}

func newRunCmd() *cobra.Command {
	flags := new(runFlags)
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "run a script file, stdin, a stored script or an expression",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, filename, err := flags.source(cmd, args)
			if err != nil {
				return err
			}
			opt, err := flags.options(config.FromContext(cmd.Context()).JS.Runner)
			if err != nil {
				return err
			}
			opt.Filename = filename
			return runSource(cmd, opt, source)
		},
	}
	cmd.Flags().StringVar(&flags.arena, "arena", "", "arena size, e.g. 16384, 32k, 64KiB")
	cmd.Flags().DurationVarP(&flags.timeout, "timeout", "t", 0, "terminate the script after the duration")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "evaluate in strict mode")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "run the stored script with the name")
	cmd.Flags().StringVarP(&flags.eval, "eval", "e", "", "evaluate the expression")
	cmd.MarkFlagsMutuallyExclusive("name", "eval")
	return cmd
}

func (f *runFlags) source(cmd *cobra.Command, args []string) (source, filename string, err error) {
	switch {
	case f.eval != "":
		return f.eval, js.DefaultFilename, nil
	case f.name != "":
		store, err := openStore(cmd.Context())
		if err != nil {
			return "", "", err
		}
		defer store.Close()
		source, err = store.Get(f.name)
		return source, f.name, err
	case len(args) == 0 || args[0] == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), "<stdin>", err
	default:
		b, err := os.ReadFile(args[0])
		return string(b), args[0], err
	}
}

func (f *runFlags) options(opt js.RunnerOptions) (js.RunnerOptions, error) {
	if f.arena != "" {
		size, err := utils.ParseSize(f.arena)
		if err != nil {
			return opt, err
		}
		opt.ArenaSize = utils.Size(size)
	}
	if f.timeout > 0 {
		opt.Timeout = f.timeout
	}
	opt.Strict = opt.Strict || f.strict
	return opt, nil
}

// runSource evaluates source with a dedicated runner writing to the command output.
func runSource(cmd *cobra.Command, opt js.RunnerOptions, source string) error {
	opt.Output = cmd.OutOrStdout()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	res, err := js.NewRunner(opt).Run(ctx, source)
	if err != nil {
		return fmt.Errorf("run %s: %w", opt.Filename, err)
	}
	if res.Failed() {
		return errScriptFailed
	}
	return nil
}
