package cli

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/babelone/pkg/errors"
	pkgio "github.com/matzehuels/babelone/pkg/io"
	"github.com/matzehuels/babelone/pkg/translate"
)

// translateOpts holds the command-line flags for the translate command.
type translateOpts struct {
	from        string // source kind, detected from the file name if empty
	to          string // target kind for every destination, detected if empty
	splitGroups bool   // write named groups to requirements-<group>.txt
	merge       bool   // use existing destinations as merge bases
	stdout      bool   // print results instead of writing files
	strict      bool   // fail on warnings
}

// output is one translated destination.
type output struct {
	path   string
	kind   translate.Kind
	result *translate.Result
}

// translateCommand creates the translate command.
func (c *CLI) translateCommand() *cobra.Command {
	var opts translateOpts

	cmd := &cobra.Command{
		Use:   "translate <source> <destination>...",
		Short: "Translate a build specification into other formats",
		Long: `Translate a build specification file into one or more other formats.

Formats are detected from file names (requirements*.txt, setup.py,
pyproject.toml) unless --from or --to is given. When a destination already
exists it is used as a merge base: sections babelone does not understand
keep their place and text.

Examples:
  babelone translate setup.py pyproject.toml
  babelone translate pyproject.toml requirements.txt --split-groups
  babelone translate pyproject.toml setup.py requirements.txt
  babelone translate deps.in out.txt --from pinned --to pinned`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.splitGroups = flagOrConfig(cmd, "split-groups", opts.splitGroups, c.Config.SplitGroups)
			opts.merge = flagOrConfig(cmd, "merge", opts.merge, c.Config.Merge)
			opts.strict = flagOrConfig(cmd, "strict", opts.strict, c.Config.Strict)
			return runTranslate(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.from, "from", "", "source format (pinned, script, manifest)")
	cmd.Flags().StringVar(&opts.to, "to", "", "destination format (pinned, script, manifest)")
	cmd.Flags().BoolVar(&opts.splitGroups, "split-groups", false, "write each dependency group to requirements-<group>.txt")
	cmd.Flags().BoolVar(&opts.merge, "merge", true, "merge into existing destination files")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "print results instead of writing files")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "treat warnings as errors")

	return cmd
}

func runTranslate(cmd *cobra.Command, source string, dests []string, opts translateOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	source, err := resolveSource(ctx, source)
	if err != nil {
		return err
	}
	for _, dest := range dests {
		if err := errors.ValidatePath(dest); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "destination %q", dest)
		}
	}
	src, err := resolveKind(opts.from, source)
	if err != nil {
		return err
	}
	text, err := pkgio.ReadText(source)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "read source")
	}
	logger.Debug("Read source", "path", source, "format", src)

	outputs, err := translateAll(ctx, src, text, dests, opts)
	if err != nil {
		return err
	}

	warnings := 0
	for _, o := range outputs {
		logWarnings(logger, o.path, o.result.Warnings)
		warnings += len(o.result.Warnings)
	}
	if opts.strict && warnings > 0 {
		return errors.New(errors.ErrCodeInvalidInput, "%d warning(s) with --strict; nothing written", warnings)
	}

	if opts.stdout {
		return printOutputs(cmd, outputs)
	}
	if err := writeOutputs(outputs); err != nil {
		return err
	}

	printSuccess("Translated %s (%s)", source, src)
	for _, o := range outputs {
		printFile(o.path)
		for _, name := range slices.Sorted(maps.Keys(o.result.Extra)) {
			printFile(filepath.Join(filepath.Dir(o.path), name))
		}
	}
	if warnings > 0 {
		printWarning("%d warning(s); run with --strict to fail instead", warnings)
	}
	prog.done(fmt.Sprintf("Translated %s", source))
	return nil
}

// translateAll renders every destination concurrently. Each translation
// parses the source on its own, so no model is shared between goroutines.
func translateAll(ctx context.Context, src translate.Kind, text string, dests []string, opts translateOpts) ([]output, error) {
	outputs := make([]output, len(dests))
	g, ctx := errgroup.WithContext(ctx)
	for i, dest := range dests {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dst, err := resolveKind(opts.to, dest)
			if err != nil {
				return err
			}
			var existing string
			if opts.merge && !opts.stdout {
				if existing, err = pkgio.ReadOptional(dest); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidPath, err, "read merge base")
				}
			}
			res, err := translate.Translate(src, text, dst, existing, translate.Options{SplitGroups: opts.splitGroups})
			if err != nil {
				return err
			}
			outputs[i] = output{path: dest, kind: dst, result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func writeOutputs(outputs []output) error {
	for _, o := range outputs {
		if err := pkgio.WriteText(o.path, o.result.Text); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write destination")
		}
		for name, text := range o.result.Extra {
			path := filepath.Join(filepath.Dir(o.path), name)
			if err := pkgio.WriteText(path, text); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "write group file")
			}
		}
	}
	return nil
}

func printOutputs(cmd *cobra.Command, outputs []output) error {
	w := cmd.OutOrStdout()
	multi := len(outputs) > 1
	for _, o := range outputs {
		if multi || len(o.result.Extra) > 0 {
			fmt.Fprintf(w, "==> %s <==\n", o.path)
		}
		fmt.Fprint(w, o.result.Text)
		for _, name := range slices.Sorted(maps.Keys(o.result.Extra)) {
			fmt.Fprintf(w, "==> %s <==\n", name)
			fmt.Fprint(w, o.result.Extra[name])
		}
	}
	return nil
}

// resolveKind parses an explicit format name or detects one from path.
func resolveKind(name, path string) (translate.Kind, error) {
	if name != "" {
		return translate.ParseKind(name)
	}
	k, err := translate.DetectKind(path)
	if err != nil {
		return 0, errors.New(errors.ErrCodeUnknownFormat, "cannot detect the format of %s; name it with --from/--to", path)
	}
	return k, nil
}
