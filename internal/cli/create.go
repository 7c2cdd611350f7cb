package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/babelone/pkg/errors"
	pkgio "github.com/matzehuels/babelone/pkg/io"
	"github.com/matzehuels/babelone/pkg/translate"
)

// createCommand creates the create command for scaffolding empty files.
func (c *CLI) createCommand() *cobra.Command {
	var (
		kind  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "create <destination>...",
		Short: "Scaffold empty build specification files",
		Long: `Scaffold empty build specification files.

The scaffold holds only the structure its format requires: an empty
[project] table for pyproject.toml, a bare setup() call for setup.py and
an empty requirements.txt.

Examples:
  babelone create pyproject.toml
  babelone create setup.py requirements.txt
  babelone create deps.in --kind pinned`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			for _, dest := range args {
				if err := errors.ValidatePath(dest); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidPath, err, "destination %q", dest)
				}
				k, err := resolveKind(kind, dest)
				if err != nil {
					return err
				}
				if _, err := os.Stat(dest); err == nil && !force {
					return errors.New(errors.ErrCodeInvalidPath, "%s already exists; use --force to overwrite", dest)
				}
				text, err := translate.Create(k)
				if err != nil {
					return err
				}
				if err := pkgio.WriteText(dest, text); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidPath, err, "write scaffold")
				}
				logger.Debug("Created scaffold", "path", dest, "format", k)
				printSuccess("Created %s (%s)", dest, k)
			}
			if len(args) == 1 {
				printNextStep("Fill it from an existing file", "babelone translate <source> "+args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "format to create (pinned, script, manifest)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")

	return cmd
}
