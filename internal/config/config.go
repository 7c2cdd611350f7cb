// Package config loads CLI defaults with Viper.
//
// Defaults come from $XDG_CONFIG_HOME/babelone/config.toml (the platform
// config directory elsewhere) or, when that file is absent, ./.babelone.toml.
// BABELONE_* environment variables override file values, and command line
// flags override both.
package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/matzehuels/babelone/pkg/errors"
)

const (
	// AppName is the application name.
	AppName = "babelone"
	// FileName is the config file name inside the config directory.
	FileName = "config.toml"
	// LocalFileName is the project-local config file name.
	LocalFileName = ".babelone.toml"
	// EnvPrefix prefixes environment overrides (BABELONE_STRICT=true).
	EnvPrefix = "BABELONE"
)

// Config holds the defaults for command flags.
type Config struct {
	SplitGroups bool `mapstructure:"split_groups"`
	Strict      bool `mapstructure:"strict"`
	Verbose     bool `mapstructure:"verbose"`
	Merge       bool `mapstructure:"merge"`
}

// LoadOptions selects where configuration is read from.
type LoadOptions struct {
	// FilePath, when set, is the only config file consulted and must exist.
	FilePath string
	// Dir overrides the platform config directory.
	Dir string
	// WorkDir is searched for LocalFileName; defaults to the current directory.
	WorkDir string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{Merge: true}
}

// Dir returns the babelone configuration directory.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		var err error
		if base, err = os.UserConfigDir(); err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "locate config directory")
		}
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the configuration and returns it with the path of the file
// it came from ("" when only defaults and environment were used).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("split_groups", defaults.SplitGroups)
	v.SetDefault("strict", defaults.Strict)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("merge", defaults.Merge)

	path, err := resolve(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode config")
	}
	return &cfg, path, nil
}

// resolve picks the config file to read, or "" when there is none.
func resolve(opts LoadOptions) (string, error) {
	if opts.FilePath != "" {
		if !fileExists(opts.FilePath) {
			return "", errors.New(errors.ErrCodeInvalidPath, "config file not found: %s", opts.FilePath)
		}
		return opts.FilePath, nil
	}

	dir := opts.Dir
	if dir == "" {
		var err error
		if dir, err = Dir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, FileName); fileExists(p) {
		return p, nil
	}
	if p := filepath.Join(opts.WorkDir, LocalFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
