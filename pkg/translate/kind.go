package translate

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/formats/pyproject"
	"github.com/matzehuels/babelone/pkg/formats/requirements"
	"github.com/matzehuels/babelone/pkg/formats/setup"
	"github.com/matzehuels/babelone/pkg/project"
)

// Kind identifies one of the supported build specification formats.
// The zero value is not a valid kind.
type Kind int

const (
	// Pinned is a requirements.txt style pinned dependency list.
	Pinned Kind = iota + 1
	// Script is a setup.py build script.
	Script
	// Manifest is a pyproject.toml project manifest.
	Manifest
)

// Kinds lists every supported kind.
var Kinds = []Kind{Pinned, Script, Manifest}

// format binds a kind to its parser and serializer.
type format struct {
	name      string
	file      string
	supports  func(filename string) bool
	parse     func(text string) (*project.Project, []project.Warning, error)
	serialize func(p *project.Project, existing string) (string, []project.Warning, error)
}

// format returns the binding for k. The kinds are a closed set.
func (k Kind) format() (format, bool) {
	switch k {
	case Pinned:
		return format{
			name:     requirements.Kind,
			file:     "requirements.txt",
			supports: requirements.Supports,
			parse:    requirements.Parse,
			serialize: func(p *project.Project, _ string) (string, []project.Warning, error) {
				out, warnings := requirements.Serialize(p)
				return out, warnings, nil
			},
		}, true
	case Script:
		return format{
			name:     setup.Kind,
			file:     "setup.py",
			supports: setup.Supports,
			parse:    setup.Parse,
			serialize: func(p *project.Project, _ string) (string, []project.Warning, error) {
				out, warnings := setup.Serialize(p)
				return out, warnings, nil
			},
		}, true
	case Manifest:
		return format{
			name:      pyproject.Kind,
			file:      "pyproject.toml",
			supports:  pyproject.Supports,
			parse:     pyproject.Parse,
			serialize: pyproject.Serialize,
		}, true
	}
	return format{}, false
}

// String returns the kind name ("pinned", "script", "manifest").
func (k Kind) String() string {
	if f, ok := k.format(); ok {
		return f.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// FileName returns the conventional file name for the kind.
func (k Kind) FileName() string {
	f, _ := k.format()
	return f.file
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := k.format()
	return ok
}

// ParseKind resolves a kind name or a conventional file name. Names are
// matched case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if f, _ := k.format(); name == f.name || name == f.file {
			return k, nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownFormat, "unknown format %q (available: %s)", s, kindNames())
}

// DetectKind maps a file path to a kind using the file naming convention
// of each format.
func DetectKind(path string) (Kind, error) {
	name := filepath.Base(path)
	for _, k := range Kinds {
		if f, _ := k.format(); f.supports(name) {
			return k, nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnknownFormat, "cannot detect format of %s", name)
}

func lookup(k Kind) (format, error) {
	f, ok := k.format()
	if !ok {
		return format{}, errors.New(errors.ErrCodeUnknownFormat, "unknown format %s (available: %s)", k, kindNames())
	}
	return f, nil
}

func kindNames() string {
	names := make([]string, len(Kinds))
	for i, k := range Kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}
