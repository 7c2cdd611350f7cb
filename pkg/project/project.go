package project

import (
	"regexp"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/version"
)

// DefaultGroup names the unnamed default dependency group in messages.
const DefaultGroup = "default"

// BuildGroup names the build requirements in messages and warnings.
const BuildGroup = "build-requires"

// Entry point group names shared by the script and manifest formats.
const (
	ConsoleScripts = "console_scripts"
	GUIScripts     = "gui_scripts"
)

// Project is the canonical in-memory representation of a Python project's
// build specification. Empty strings mean "absent".
type Project struct {
	Name           string
	Version        string
	Description    string
	RequiresPython string
	Dependencies   []Dependency
	Groups         []Group
	EntryPoints    []EntryPointGroup
	BuildRequires  []Dependency // needed to build the project, not to run it
	Passthrough    Passthrough
}

// Dependency is a single requirement on an external distribution.
type Dependency struct {
	Name        string            // normalized distribution name
	Constraints version.Specifier // empty means unconstrained
	Extras      []string          // sorted, deduplicated
	Marker      string            // environment marker, carried verbatim
	URL         string            // direct reference ("name @ url")
}

// Group is a named optional dependency set.
type Group struct {
	Name         string
	Dependencies []Dependency
}

// EntryPointGroup is a named list of entry points such as console_scripts.
type EntryPointGroup struct {
	Name    string
	Entries []EntryPoint
}

// EntryPoint maps a script name to an object reference ("pkg.mod:func").
type EntryPoint struct {
	Name   string
	Object string
}

// String renders the entry point in setuptools form "name = object".
func (e EntryPoint) String() string { return e.Name + " = " + e.Object }

// ParseEntryPoint parses "name = module:attr".
func ParseEntryPoint(s string) (EntryPoint, error) {
	name, object, ok := strings.Cut(s, "=")
	name, object = strings.TrimSpace(name), strings.TrimSpace(object)
	if !ok || name == "" || object == "" {
		return EntryPoint{}, errors.New(errors.ErrCodeInvalidInput, "malformed entry point %q", s)
	}
	return EntryPoint{Name: name, Object: object}, nil
}

// Group returns the named group, if present.
func (p *Project) Group(name string) (*Group, bool) {
	for i := range p.Groups {
		if p.Groups[i].Name == name {
			return &p.Groups[i], true
		}
	}
	return nil, false
}

// EntryPointGroup returns the named entry point group, if present.
func (p *Project) EntryPointGroup(name string) (*EntryPointGroup, bool) {
	for i := range p.EntryPoints {
		if p.EntryPoints[i].Name == name {
			return &p.EntryPoints[i], true
		}
	}
	return nil, false
}

// Validate checks the model invariants: no duplicate dependency within a
// group, the build requirements included, and no duplicate group names.
func (p *Project) Validate() error {
	if err := CheckDuplicates(DefaultGroup, p.Dependencies); err != nil {
		return err
	}
	if err := CheckDuplicates(BuildGroup, p.BuildRequires); err != nil {
		return err
	}
	seen := make(map[string]bool, len(p.Groups))
	for _, g := range p.Groups {
		if seen[g.Name] {
			return errors.New(errors.ErrCodeDuplicateDependency, "group %q declared twice", g.Name)
		}
		seen[g.Name] = true
		if err := CheckDuplicates(g.Name, g.Dependencies); err != nil {
			return err
		}
	}
	return nil
}

// CheckDuplicates reports a DUPLICATE_DEPENDENCY error when two entries in
// deps share a normalized name, whatever their environment markers.
func CheckDuplicates(group string, deps []Dependency) error {
	seen := make(map[string]bool, len(deps))
	for _, d := range deps {
		if seen[d.Name] {
			return errors.New(errors.ErrCodeDuplicateDependency,
				"%q appears more than once in group %q", d.Name, group)
		}
		seen[d.Name] = true
	}
	return nil
}

var separatorRunRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName returns the canonical form of a distribution name:
// lowercase with runs of "-", "_" and "." collapsed to a single "-".
func NormalizeName(name string) string {
	return separatorRunRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
