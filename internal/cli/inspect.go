package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/babelone/pkg/errors"
	pkgio "github.com/matzehuels/babelone/pkg/io"
	"github.com/matzehuels/babelone/pkg/project"
	"github.com/matzehuels/babelone/pkg/translate"
)

// Output formats for the inspect command.
const (
	outputText = "text"
	outputJSON = "json"
	outputTOML = "toml"
	outputYAML = "yaml"
)

// inspectCommand creates the inspect command, which prints the canonical
// model a file parses into.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		from   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "inspect <file|dir>",
		Short: "Show what babelone reads from a build specification",
		Long: `Show the project metadata, dependencies and passthrough sections
babelone reads from a build specification file.

Examples:
  babelone inspect setup.py
  babelone inspect pyproject.toml --output json
  babelone inspect .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSource(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			k, err := resolveKind(from, path)
			if err != nil {
				return err
			}
			text, err := pkgio.ReadText(path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "read file")
			}
			p, warnings, err := translate.Parse(k, text)
			if err != nil {
				return err
			}
			logWarnings(loggerFromContext(cmd.Context()), path, warnings)

			switch format {
			case outputJSON:
				return pkgio.WriteJSON(p, cmd.OutOrStdout())
			case outputTOML:
				return pkgio.WriteTOML(p, cmd.OutOrStdout())
			case outputYAML:
				return pkgio.WriteYAML(p, cmd.OutOrStdout())
			case outputText:
				printProject(path, k, p)
				return nil
			}
			return errors.New(errors.ErrCodeInvalidInput, "unknown output format %q (available: %s, %s, %s, %s)",
				format, outputText, outputJSON, outputTOML, outputYAML)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "file format (pinned, script, manifest)")
	cmd.Flags().StringVarP(&format, "output", "o", outputText, "output format (text, json, toml, yaml)")

	return cmd
}

// printProject prints a styled summary of p.
func printProject(path string, k translate.Kind, p *project.Project) {
	printTitle(fmt.Sprintf("%s (%s)", path, k))
	for _, kv := range []struct{ key, value string }{
		{"name", p.Name},
		{"version", p.Version},
		{"description", p.Description},
		{"requires-python", p.RequiresPython},
	} {
		if kv.value != "" {
			printKeyValue(kv.key, kv.value)
		}
	}

	printKeyValue("dependencies", StyleNumber.Render(fmt.Sprint(len(p.Dependencies))))
	for _, g := range p.Groups {
		printKeyValue("group "+g.Name, StyleNumber.Render(fmt.Sprint(len(g.Dependencies))))
	}
	if len(p.BuildRequires) > 0 {
		printKeyValue(project.BuildGroup, StyleNumber.Render(fmt.Sprint(len(p.BuildRequires))))
	}
	if t := dependencyTable(p); t != "" {
		fmt.Fprintln(stdout, t)
	}
	for _, ep := range p.EntryPoints {
		printKeyValue(ep.Name, StyleNumber.Render(fmt.Sprint(len(ep.Entries))))
		for _, e := range ep.Entries {
			printDetail("%s", e)
		}
	}
	if p.Passthrough.Len() > 0 {
		printKeyValue("passthrough", strings.Join(p.Passthrough.Keys(), ", "))
	}
}
