package setup

import (
	"strings"

	"github.com/matzehuels/babelone/pkg/project"
)

const indent = "    "

// Serialize renders p as a minimal setup.py: one import and a single
// setup() call with one keyword argument per line. Absent fields are
// omitted. Passthrough from another format is dropped with a warning.
func Serialize(p *project.Project) (string, []project.Warning) {
	var warnings []project.Warning
	pass := p.Passthrough
	if !pass.From(Kind) {
		warnings = append(warnings, project.ForeignPassthrough(p, Kind))
		pass = project.Passthrough{}
	}

	var args []string
	kwarg := func(key, value string) { args = append(args, key+"="+value) }

	if p.Name != "" {
		kwarg("name", quote(p.Name))
	}
	if p.Version != "" {
		kwarg("version", quote(p.Version))
	}
	if p.Description != "" {
		kwarg("description", quote(p.Description))
	}
	if p.RequiresPython != "" {
		kwarg("python_requires", quote(p.RequiresPython))
	}
	if len(p.BuildRequires) > 0 {
		kwarg("setup_requires", stringList(project.FormatRequirements(p.BuildRequires), 1))
	}
	if len(p.Dependencies) > 0 {
		kwarg("install_requires", stringList(project.FormatRequirements(p.Dependencies), 1))
	}
	if len(p.Groups) > 0 {
		var b strings.Builder
		b.WriteString("{\n")
		for _, g := range p.Groups {
			b.WriteString(indent + indent + quote(g.Name) + ": ")
			b.WriteString(stringList(project.FormatRequirements(g.Dependencies), 2))
			b.WriteString(",\n")
		}
		b.WriteString(indent + "}")
		kwarg("extras_require", b.String())
	}

	entryPoints := renderEntryPoints(p.EntryPoints, pass)
	if entryPoints != "" {
		kwarg("entry_points", entryPoints)
	}

	filled := map[string]bool{
		"name":             p.Name != "",
		"version":          p.Version != "",
		"description":      p.Description != "",
		"python_requires":  p.RequiresPython != "",
		"setup_requires":   len(p.BuildRequires) > 0,
		"install_requires": len(p.Dependencies) > 0,
		"extras_require":   len(p.Groups) > 0,
		"entry_points":     entryPoints != "",
	}
	for _, f := range pass.Entries {
		switch {
		case strings.HasPrefix(f.Key, entryPointPrefix), filled[f.Key]:
		case strings.HasPrefix(f.Key, "*"):
			args = append(args, f.Value)
		default:
			kwarg(f.Key, f.Value)
		}
	}

	var b strings.Builder
	b.WriteString("from setuptools import setup\n\n")
	if len(args) == 0 {
		b.WriteString("setup()\n")
		return b.String(), warnings
	}
	b.WriteString("setup(\n")
	for _, a := range args {
		b.WriteString(indent + a + ",\n")
	}
	b.WriteString(")\n")
	return b.String(), warnings
}

func renderEntryPoints(groups []project.EntryPointGroup, pass project.Passthrough) string {
	var lines []string
	for _, g := range groups {
		entries := make([]string, len(g.Entries))
		for i, e := range g.Entries {
			entries[i] = e.String()
		}
		lines = append(lines, quote(g.Name)+": "+stringList(entries, 2))
	}
	for _, f := range pass.Entries {
		if group, ok := strings.CutPrefix(f.Key, entryPointPrefix); ok {
			lines = append(lines, quote(group)+": "+f.Value)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("{\n")
	for _, l := range lines {
		b.WriteString(indent + indent + l + ",\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

// stringList renders items as a multi-line Python list whose closing
// bracket sits at the given indent level.
func stringList(items []string, level int) string {
	if len(items) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range items {
		b.WriteString(strings.Repeat(indent, level+1) + quote(it) + ",\n")
	}
	b.WriteString(strings.Repeat(indent, level) + "]")
	return b.String()
}
