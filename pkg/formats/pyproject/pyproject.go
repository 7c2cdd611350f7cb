// Package pyproject reads and writes PEP 621 pyproject.toml manifests.
//
// The [project] table supplies name, version, description, requires-python,
// dependencies, scripts, gui-scripts and optional-dependencies, and
// [build-system] supplies the build requirements. Everything else (other
// tables such as [tool.*], unknown keys inside [project] or [build-system],
// root-level keys) is kept as raw text passthrough keyed by its dotted path
// and reported with an UnparsedField warning, so a manifest-to-manifest
// round trip reproduces it.
//
// Documents are decoded with BurntSushi/toml first, so duplicate keys,
// redefined tables and unterminated headers fail as MALFORMED_DOCUMENT.
package pyproject

import (
	stderrors "errors"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/project"
)

// Kind is the format identifier used in passthrough sources and messages.
const Kind = "manifest"

// Tables with canonical slots.
const (
	tableProject     = "project"
	tableBuildSystem = "build-system"
)

// Keys of the [project] table with a canonical slot.
const (
	keyName           = "name"
	keyVersion        = "version"
	keyDescription    = "description"
	keyRequiresPython = "requires-python"
	keyDependencies   = "dependencies"
	keyOptional       = "optional-dependencies"
	keyScripts        = "scripts"
	keyGUIScripts     = "gui-scripts"
)

// keyBuildRequires is the dotted path of the build requirements.
const keyBuildRequires = tableBuildSystem + ".requires"

// Supports reports whether filename is a pyproject manifest.
func Supports(name string) bool {
	return name == "pyproject.toml"
}

type document struct {
	Project     map[string]toml.Primitive `toml:"project"`
	BuildSystem map[string]toml.Primitive `toml:"build-system"`
}

// Parse decodes a manifest into the canonical model. Unknown tables and
// keys, and recognized keys with an unexpected type, are kept as
// passthrough with one UnparsedField warning each.
func Parse(text string) (*project.Project, []project.Warning, error) {
	var doc document
	md, err := toml.Decode(text, &doc)
	if err != nil {
		return nil, nil, malformed(err)
	}

	chunks := splitChunks(text)
	d := &decoder{
		text: text,
		md:   md,
		p:    &project.Project{},
		tables: map[string]map[string]toml.Primitive{
			tableProject:     doc.Project,
			tableBuildSystem: doc.BuildSystem,
		},
		lines:    keyLines(chunks),
		accepted: make(map[string]bool),
		rejected: make(map[string]bool),
	}
	if err := d.project(doc.Project); err != nil {
		return nil, nil, err
	}
	if err := d.buildSystem(doc.BuildSystem); err != nil {
		return nil, nil, err
	}
	d.passthrough(chunks)
	return d.p, d.warnings, nil
}

func malformed(err error) error {
	line := 0
	var pe toml.ParseError
	if stderrors.As(err, &pe) {
		line = pe.Position.Line
	}
	return errors.At(errors.Wrap(errors.ErrCodeMalformedDocument, err, "invalid TOML document"), line, 0)
}

type decoder struct {
	text     string
	md       toml.MetaData
	p        *project.Project
	tables   map[string]map[string]toml.Primitive
	lines    map[string]int // dotted path -> defining line
	accepted map[string]bool
	rejected map[string]bool
	warnings []project.Warning
}

func (d *decoder) project(table map[string]toml.Primitive) error {
	for _, f := range []struct {
		key string
		dst *string
	}{
		{keyName, &d.p.Name},
		{keyVersion, &d.p.Version},
		{keyDescription, &d.p.Description},
		{keyRequiresPython, &d.p.RequiresPython},
	} {
		prim, ok := table[f.key]
		if !ok {
			continue
		}
		if err := d.md.PrimitiveDecode(prim, f.dst); err != nil {
			d.reject(tableProject, f.key, "must be a string")
			continue
		}
		d.accept(tableProject, f.key)
	}

	if prim, ok := table[keyDependencies]; ok {
		var reqs []string
		if err := d.md.PrimitiveDecode(prim, &reqs); err != nil {
			d.reject(tableProject, keyDependencies, "must be an array of strings")
		} else {
			deps, err := d.requirements(project.DefaultGroup, reqs)
			if err != nil {
				return err
			}
			d.p.Dependencies = deps
			d.accept(tableProject, keyDependencies)
		}
	}

	if prim, ok := table[keyOptional]; ok {
		var groups map[string][]string
		if err := d.md.PrimitiveDecode(prim, &groups); err != nil {
			d.reject(tableProject, keyOptional, "must map group names to arrays of strings")
		} else {
			for _, name := range slices.Sorted(maps.Keys(groups)) {
				deps, err := d.requirements(name, groups[name])
				if err != nil {
					return err
				}
				d.p.Groups = append(d.p.Groups, project.Group{Name: name, Dependencies: deps})
			}
			d.accept(tableProject, keyOptional)
		}
	}

	for _, ep := range []struct{ key, group string }{
		{keyScripts, project.ConsoleScripts},
		{keyGUIScripts, project.GUIScripts},
	} {
		prim, ok := table[ep.key]
		if !ok {
			continue
		}
		var scripts map[string]string
		if err := d.md.PrimitiveDecode(prim, &scripts); err != nil {
			d.reject(tableProject, ep.key, "must map script names to object references")
			continue
		}
		g := project.EntryPointGroup{Name: ep.group}
		for _, name := range d.tableOrder(scripts, tableProject, ep.key) {
			g.Entries = append(g.Entries, project.EntryPoint{Name: name, Object: scripts[name]})
		}
		d.p.EntryPoints = append(d.p.EntryPoints, g)
		d.accept(tableProject, ep.key)
	}
	return nil
}

func (d *decoder) buildSystem(table map[string]toml.Primitive) error {
	prim, ok := table["requires"]
	if !ok {
		return nil
	}
	var reqs []string
	if err := d.md.PrimitiveDecode(prim, &reqs); err != nil {
		d.reject(tableBuildSystem, "requires", "must be an array of strings")
		return nil
	}
	deps, err := d.requirements(project.BuildGroup, reqs)
	if err != nil {
		return err
	}
	d.p.BuildRequires = deps
	d.accept(tableBuildSystem, "requires")
	return nil
}

func (d *decoder) accept(table, key string) {
	d.accepted[table+"."+key] = true
}

func (d *decoder) reject(table, key, why string) {
	path := table + "." + key
	d.rejected[path] = true
	d.warnings = append(d.warnings, project.Unparsed(path, d.keyLine(path),
		"%s %s; kept verbatim", path, why))
}

// tableOrder returns the keys of table, found at path, in document order.
// Keys the metadata does not list follow in sorted order.
func (d *decoder) tableOrder(table map[string]string, path ...string) []string {
	var out []string
	for _, k := range d.md.Keys() {
		if len(k) != len(path)+1 || !slices.Equal(k[:len(path)], path) {
			continue
		}
		if name := k[len(k)-1]; !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(table)) {
		if !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

func (d *decoder) requirements(group string, reqs []string) ([]project.Dependency, error) {
	var deps []project.Dependency
	for _, r := range reqs {
		dep, err := project.ParseRequirement(r)
		if err != nil {
			return nil, errors.At(err, d.lineOf(r), 0)
		}
		deps = append(deps, dep)
		if err := project.CheckDuplicates(group, deps); err != nil {
			return nil, errors.At(err, d.lineOf(r), 0)
		}
	}
	return deps, nil
}

// lineOf returns the line of the first string literal holding s, or 0.
func (d *decoder) lineOf(s string) int {
	for _, needle := range []string{`"` + s + `"`, "'" + s + "'", s} {
		if i := strings.Index(d.text, needle); i >= 0 {
			return strings.Count(d.text[:i], "\n") + 1
		}
	}
	return 0
}

// keyLine returns the line defining path, or the line of its closest
// defined parent, or 0.
func (d *decoder) keyLine(path string) int {
	for {
		if line, ok := d.lines[path]; ok {
			return line
		}
		i := strings.LastIndexByte(path, '.')
		if i < 0 {
			return 0
		}
		path = path[:i]
	}
}

// owns reports whether the model renders the named top-level table, so
// its keys are read from the model and never re-emitted as raw text.
func (d *decoder) owns(table string) bool {
	switch table {
	case tableProject:
		return true
	case tableBuildSystem:
		return d.accepted[keyBuildRequires]
	}
	return false
}

// recognized reports whether a table header is owned by the canonical model.
func (d *decoder) recognized(path []string) bool {
	switch len(path) {
	case 1:
		return d.owns(path[0])
	case 2:
		if path[0] != tableProject {
			return false
		}
		switch path[1] {
		case keyOptional, keyScripts, keyGUIScripts:
			return d.accepted[tableProject+"."+path[1]]
		}
	}
	return false
}

// passthrough collects everything outside the canonical slots. Entries are
// ordered lead (before the first recognized table), inline keys of the
// owned tables, then trailing tables.
func (d *decoder) passthrough(chunks []chunk) {
	var lead, inline, trailing []project.Field
	seen := false
	arrays := make(map[string]int)

	for _, s := range chunks[0].statements() {
		table := s.path[0]
		switch {
		case !d.owns(table):
			lead = d.keep(lead, table, s.line, s.text())
		case len(s.path) == 1:
			d.dropInline(table, s.line)
		case !d.accepted[table+"."+s.path[1]]:
			inline = d.keep(inline, table+"."+s.path[1], s.line, s.rebase())
		}
	}

	for _, c := range chunks[1:] {
		if d.recognized(c.path) {
			seen = true
			if len(c.path) == 1 {
				for _, s := range c.statements() {
					if key := c.path[0] + "." + s.path[0]; !d.accepted[key] {
						inline = d.keep(inline, key, s.line, s.text())
					}
				}
			}
			continue
		}

		key := c.key()
		if c.array {
			key = arrayKey(key, arrays[key])
			arrays[c.key()]++
		}
		d.unknown(key, c.headerLine())
		if seen {
			trailing = append(trailing, project.Field{Key: key, Value: c.text()})
		} else {
			lead = append(lead, project.Field{Key: key, Value: c.text()})
		}
	}

	if len(lead)+len(inline)+len(trailing) == 0 {
		return
	}
	d.p.Passthrough = project.Passthrough{
		Source:  Kind,
		Lead:    len(lead),
		Entries: slices.Concat(lead, inline, trailing),
	}
}

// keep adds text under key, extending an existing entry so dotted keys
// that share a first part stay together. A new key is reported once.
func (d *decoder) keep(fields []project.Field, key string, line int, text string) []project.Field {
	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value += text
			return fields
		}
	}
	d.unknown(key, line)
	return append(fields, project.Field{Key: key, Value: text})
}

// unknown reports a key or table with no canonical slot, unless a wrong
// typed value inside it was reported already.
func (d *decoder) unknown(key string, line int) {
	for r := range d.rejected {
		if r == key || strings.HasPrefix(r, key+".") {
			return
		}
	}
	d.warnings = append(d.warnings, project.Unparsed(key, line,
		"%s has no canonical slot; kept verbatim", key))
}

// dropInline reports the keys of an owned table written as an inline
// table ("project = {...}"). The model re-renders the table as a header
// section, so keys it cannot hold are lost.
func (d *decoder) dropInline(table string, line int) {
	for _, k := range slices.Sorted(maps.Keys(d.tables[table])) {
		path := table + "." + k
		if !d.accepted[path] && !d.rejected[path] {
			d.warnings = append(d.warnings, project.Unparsed(path, line,
				"%s is set in an inline table and cannot be kept; dropped", path))
		}
	}
}
