package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/translate"
)

// specFile is a build specification found in a directory.
type specFile struct {
	name string
	path string
	kind translate.Kind
}

// interactive reports whether a picker can be shown. Tests replace it.
var interactive = func() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}

// pickFile runs the picker and returns the chosen file, or nil when the
// user quit. Tests replace it.
var pickFile = func(ctx context.Context, files []specFile) (*specFile, error) {
	final, err := tea.NewProgram(NewFileListModel(files), tea.WithContext(ctx)).Run()
	if err != nil {
		return nil, err
	}
	fm, ok := final.(FileListModel)
	if !ok {
		return nil, nil
	}
	return fm.Selected, nil
}

// findSpecs lists the build specifications directly inside dir, sorted by
// name.
func findSpecs(dir string) ([]specFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []specFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		k, err := translate.DetectKind(e.Name())
		if err != nil {
			continue
		}
		files = append(files, specFile{name: e.Name(), path: filepath.Join(dir, e.Name()), kind: k})
	}
	return files, nil
}

// resolveSource turns a source argument into a file path. A directory with
// a single build specification resolves to it; with several, the user picks
// one on a terminal.
func resolveSource(ctx context.Context, path string) (string, error) {
	if path != "" {
		path = filepath.Clean(path)
	}
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}

	files, err := findSpecs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "scan %s", path)
	}
	switch {
	case len(files) == 0:
		return "", errors.New(errors.ErrCodeInvalidPath, "no build specification found in %s", path)
	case len(files) == 1:
		loggerFromContext(ctx).Debug("Found source", "path", files[0].path, "format", files[0].kind)
		return files[0].path, nil
	case !interactive():
		names := make([]string, len(files))
		for i, f := range files {
			names[i] = f.name
		}
		return "", errors.New(errors.ErrCodeInvalidInput, "%s holds several build specifications (%s); name one",
			path, strings.Join(names, ", "))
	}

	printDetail("Found %d build specifications in %s", len(files), path)
	f, err := pickFile(ctx, files)
	if err != nil {
		return "", err
	}
	if f == nil {
		return "", context.Canceled
	}
	return f.path, nil
}
