// Package config the mqjs configuration
package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
	"github.com/shiroyk/mqjs/api"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/lib/utils"
	"github.com/shiroyk/mqjs/store/bolt"
	"gopkg.in/yaml.v3"
)

// EnvPrefix the prefix of the environment overrides, e.g. MQJS_API_ADDRESS
const EnvPrefix = "MQJS"

// DefaultPath the default configuration file
const DefaultPath = "~/.config/mqjs/config.yml"

type configKey struct{}

// NewContext returns a context that contains the given Config.
func NewContext(ctx context.Context, config Config) context.Context {
	return context.WithValue(ctx, configKey{}, config)
}

// FromContext returns the Config stored in ctx by NewContext, or the default
// Config if there is none.
func FromContext(ctx context.Context) Config {
	if config, ok := ctx.Value(configKey{}).(Config); ok {
		return config
	}
	return *DefaultConfig()
}

// Config The mqjs configuration
type Config struct {
	// Api
	Api api.Options `yaml:"api" envconfig:"API"`

	// Store
	Store bolt.Options `yaml:"store" envconfig:"STORE"`

	// JS
	JS js.SchedulerOptions `yaml:"js" envconfig:"JS"`
}

// DefaultConfig The default configuration
func DefaultConfig() *Config {
	return &Config{
		Api: api.Options{
			Timeout: api.DefaultTimeout,
			Address: api.DefaultAddress,
		},
		Store: bolt.Options{
			Path: "~/.local/share/mqjs",
		},
		JS: js.SchedulerOptions{
			InitialRunners:         1,
			MaxRunners:             uint(runtime.GOMAXPROCS(0)),
			MaxRetriesGetRunner:    js.DefaultMaxRetriesGetRunner,
			MaxTimeToWaitGetRunner: js.DefaultMaxTimeToWaitGetRunner,
			Runner: js.RunnerOptions{
				ArenaSize:     js.DefaultArenaSize,
				PollInterval:  js.DefaultPollInterval,
				YieldInterval: js.DefaultYieldInterval,
				Filename:      js.DefaultFilename,
			},
		},
	}
}

// ReadConfig read configuration from the file and applies the environment overrides.
// If the configuration file is not existing then create it with default configuration.
func ReadConfig(path string) (config *Config, err error) {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	if _, err = os.Stat(file); errors.Is(err, os.ErrNotExist) {
		config = DefaultConfig()
		if err = WriteConfig(file, config); err != nil {
			return nil, err
		}
	} else {
		config, err = utils.ReadYaml[Config](file)
		if err != nil {
			return nil, err
		}
	}

	if err = envconfig.Process(EnvPrefix, config); err != nil {
		return nil, err
	}
	config.Store.Path, err = utils.ExpandPath(config.Store.Path)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// WriteConfig writes the configuration as YAML, creating the parent directories.
func WriteConfig(file string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(file), os.ModePerm); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(file, bytes, 0o600)
}
