package cmd

import (
	"log/slog"
	"os"

	"github.com/shiroyk/mqjs"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/lib/logger"
	"github.com/spf13/cobra"
)

var (
	configArg string
	debugArg  bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mqjs",
		Short:         "mqjs runs JavaScript programs in a small fixed memory arena.",
		Long:          "mqjs runs JavaScript programs in a small fixed memory arena.\nWithout a command it runs the Mandelbrot example.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mqjs.Main(cmd.Context(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&configArg, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVarP(&debugArg, "debug", "d", false, "output the debug log")
	root.AddCommand(
		newRunCmd(),
		newExamplesCmd(),
		newScriptsCmd(),
		newServeCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// initConfig loads the configuration, installs the logger and the scheduler
// and stores both in the command context.
func initConfig(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if debugArg {
		level = slog.LevelDebug
	}
	log := slog.New(logger.NewConsoleHandler(os.Stderr, level))
	slog.SetDefault(log)

	cfg, err := config.ReadConfig(configArg)
	if err != nil {
		log.Error("error reading config file, using the defaults", "error", err)
		cfg = config.DefaultConfig()
	}
	js.SetScheduler(js.NewScheduler(cfg.JS))

	ctx := config.NewContext(js.WithLogger(cmd.Context(), log), *cfg)
	cmd.SetContext(ctx)
	return nil
}
