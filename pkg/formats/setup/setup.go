// Package setup reads and writes setuptools build scripts (setup.py).
//
// Scripts are never executed. The source is tokenized, module-level
// statements and module-level if blocks are scanned for literal constant
// assignments and a call to setup() or <module>.setup(), and the call's
// keyword arguments are matched structurally. Only literal values are
// understood: strings, lists and tuples of strings, dicts with string keys,
// and names bound to such literals earlier in the module. Everything else
// is kept verbatim as passthrough so a script-to-script round trip does not
// lose it.
package setup

import (
	"slices"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/project"
)

// Kind is the format identifier used in passthrough sources and messages.
const Kind = "script"

const entryPointPrefix = "entry_points."

// Supports reports whether filename is a setuptools build script.
func Supports(name string) bool {
	return name == "setup.py"
}

// Parse extracts the canonical model from the first setup() call in text.
// It fails with UNSUPPORTED_SYNTAX when text does not tokenize or contains
// no setup() call.
func Parse(text string) (*project.Project, []project.Warning, error) {
	src := strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\r", "\n")

	toks, err := tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	stmts, err := parseStatements(toks)
	if err != nil {
		return nil, nil, err
	}

	sc := newScanner()
	sc.scan(stmts)
	if len(sc.calls) == 0 {
		return nil, nil, errors.New(errors.ErrCodeUnsupportedSyntax, "no setup() call found at module level")
	}

	call := sc.calls[0]
	b := &builder{src: src, consts: call.consts, p: &project.Project{}}
	if err := b.call(call); err != nil {
		return nil, nil, err
	}
	for _, extra := range sc.calls[1:] {
		b.warnings = append(b.warnings, project.Unparsed(extra.callee, extra.at.line,
			"additional %s() call ignored; only the first call is read", extra.callee))
	}

	if b.p.Passthrough.Len() > 0 {
		b.p.Passthrough.Source = Kind
		slices.SortStableFunc(b.p.Passthrough.Entries, func(x, y project.Field) int {
			return passthroughRank(x.Key) - passthroughRank(y.Key)
		})
	}
	if err := b.p.Validate(); err != nil {
		return nil, nil, errors.At(err, call.at.line, call.at.col)
	}
	return b.p, b.warnings, nil
}

// passthroughRank orders entry point groups ahead of other keywords,
// matching where the serializer writes them.
func passthroughRank(key string) int {
	if strings.HasPrefix(key, entryPointPrefix) {
		return 0
	}
	return 1
}

type builder struct {
	src      string
	consts   map[string]literal
	p        *project.Project
	warnings []project.Warning
}

func (b *builder) raw(toks []token) string {
	return b.src[toks[0].pos:toks[len(toks)-1].end]
}

func (b *builder) call(c setupCall) error {
	seen := make(map[string]bool)
	for _, arg := range c.args {
		if len(arg) == 0 {
			return syntaxError(c.at, "empty argument in %s() call", c.callee)
		}
		first := arg[0]
		switch {
		case first.is("*") || first.is("**"):
			raw := b.raw(arg)
			b.p.Passthrough.Set(raw, raw)
			b.warnings = append(b.warnings, project.Unparsed(raw, first.line,
				"unpacked argument %s cannot be read statically; kept verbatim", raw))
		case len(arg) >= 2 && first.kind == tokName && arg[1].is("="):
			if seen[first.text] {
				return syntaxError(first, "keyword argument %q repeated", first.text)
			}
			seen[first.text] = true
			if len(arg) == 2 {
				return syntaxError(arg[1], "missing value for keyword argument %q", first.text)
			}
			if err := b.keyword(first.text, arg[2:]); err != nil {
				return err
			}
		default:
			raw := b.raw(arg)
			b.warnings = append(b.warnings, project.Unparsed(raw, first.line,
				"positional argument %s has no keyword; skipped", raw))
		}
	}
	return nil
}

func (b *builder) keyword(key string, value []token) error {
	lit, ok := evalLiteral(value, b.consts)
	if ok {
		switch key {
		case "name", "version", "description", "python_requires":
			if lit.kind == litString {
				b.setScalar(key, lit.str)
				return nil
			}
		case "install_requires", "setup_requires":
			if items, ok := stringItems(lit); ok {
				return b.requirements(key, items)
			}
		case "extras_require":
			if lit.kind == litDict {
				handled, err := b.extras(lit)
				if handled || err != nil {
					return err
				}
			}
		case "entry_points":
			if lit.kind == litDict {
				b.entryPoints(lit)
				return nil
			}
		default:
			b.p.Passthrough.Set(key, lit.python())
			return nil
		}
	}

	b.p.Passthrough.Set(key, b.raw(value))
	b.warnings = append(b.warnings, project.Unparsed(key, value[0].line,
		"value of %s is not a supported literal; kept verbatim", key))
	return nil
}

func (b *builder) requirements(key string, items []literal) error {
	if key == "setup_requires" {
		deps, err := requirements(project.BuildGroup, items)
		b.p.BuildRequires = deps
		return err
	}
	deps, err := requirements(project.DefaultGroup, items)
	b.p.Dependencies = deps
	return err
}

func (b *builder) setScalar(key, v string) {
	switch key {
	case "name":
		b.p.Name = v
	case "version":
		b.p.Version = v
	case "description":
		b.p.Description = v
	case "python_requires":
		b.p.RequiresPython = v
	}
}

// extras maps an extras_require dict onto named groups. It reports false
// without error when some value is not a list of strings.
func (b *builder) extras(lit literal) (bool, error) {
	values := make([][]literal, len(lit.items))
	for i, v := range lit.items {
		items, ok := stringItems(v)
		if !ok {
			return false, nil
		}
		values[i] = items
	}
	for i, name := range lit.keys {
		deps, err := requirements(name, values[i])
		if err != nil {
			return false, err
		}
		b.p.Groups = append(b.p.Groups, project.Group{Name: name, Dependencies: deps})
	}
	return true, nil
}

// entryPoints maps console_scripts and gui_scripts onto the model. Other
// groups, and script groups with malformed entries, go to passthrough.
func (b *builder) entryPoints(lit literal) {
	for i, group := range lit.keys {
		v := lit.items[i]
		key := entryPointPrefix + group
		if group != project.ConsoleScripts && group != project.GUIScripts {
			b.p.Passthrough.Set(key, v.python())
			continue
		}

		eg, ok := entryPointGroup(group, v)
		if !ok {
			b.p.Passthrough.Set(key, v.python())
			b.warnings = append(b.warnings, project.Unparsed(key, v.line,
				"entry points in %s are not all of the form \"name = module:attr\"; kept verbatim", group))
			continue
		}
		b.p.EntryPoints = append(b.p.EntryPoints, eg)
	}
}

func entryPointGroup(name string, v literal) (project.EntryPointGroup, bool) {
	items, ok := stringItems(v)
	if !ok {
		return project.EntryPointGroup{}, false
	}
	eg := project.EntryPointGroup{Name: name}
	for _, it := range items {
		ep, err := project.ParseEntryPoint(it.str)
		if err != nil {
			return project.EntryPointGroup{}, false
		}
		eg.Entries = append(eg.Entries, ep)
	}
	return eg, true
}

func requirements(group string, items []literal) ([]project.Dependency, error) {
	var deps []project.Dependency
	for _, it := range items {
		dep, err := project.ParseRequirement(it.str)
		if err != nil {
			return nil, errors.At(err, it.line, it.col)
		}
		deps = append(deps, dep)
		if err := project.CheckDuplicates(group, deps); err != nil {
			return nil, errors.At(err, it.line, it.col)
		}
	}
	return deps, nil
}
