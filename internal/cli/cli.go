// Package cli implements the babelone command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/babelone/internal/config"
	"github.com/matzehuels/babelone/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "babelone"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "babelone translates between Python build specification formats",
		Long: `babelone translates between requirements.txt, setup.py and pyproject.toml.

Build scripts are read statically and never executed. Anything a target
format cannot hold is reported as a warning instead of being dropped
silently.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/babelone/config.toml or ./.babelone.toml)")

	root.AddCommand(c.translateCommand())
	root.AddCommand(c.createCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	cfg, path, err := config.Load(cmd.Context(), config.LoadOptions{FilePath: c.configPath, WorkDir: wd})
	if err != nil {
		return err
	}
	c.Config = cfg

	if c.verbose || cfg.Verbose {
		c.SetLogLevel(LogDebug)
	}
	c.Logger.Debug("Starting", "version", buildinfo.Short())
	if path != "" {
		c.Logger.Debug("Loaded config", "path", path)
	}
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// flagOrConfig returns the flag value when the user set it and the config
// value otherwise.
func flagOrConfig(cmd *cobra.Command, name string, flag, cfg bool) bool {
	if cmd.Flags().Changed(name) {
		return flag
	}
	return cfg
}
