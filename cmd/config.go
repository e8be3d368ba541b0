package cmd

import (
	"errors"
	"os"

	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/lib/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	var configGenArg string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "mqjs configuration",
		Long:  "Print the effective configuration, or generate the default one with --gen.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configGenArg != "" {
				return writeDiskConfig(configGenArg)
			}
			cfg := config.FromContext(cmd.Context())
			bytes, err := yaml.Marshal(&cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(bytes)
			return err
		},
	}
	cmd.Flags().StringVarP(&configGenArg, "gen", "g", "", "generate default configuration file")
	return cmd
}

func writeDiskConfig(path string) error {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(file); !errors.Is(err, os.ErrNotExist) {
		return errors.New("configuration file is already exists")
	}
	return config.WriteConfig(file, config.DefaultConfig())
}
