package pyproject

import (
	"bytes"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/project"
)

const indent = "    "

// Serialize renders p as a manifest. Tables come in a fixed order: lead
// passthrough, [build-system], [project], [project.scripts],
// [project.gui-scripts], [project.optional-dependencies] sorted by group
// name, then trailing passthrough tables. Unknown keys of [build-system]
// and [project] follow the keys the model fills.
//
// When existing is not empty it is used as a merge base: its passthrough
// keeps its position and text, and its recognized sections are replaced by
// the model's. Build requirements are the exception: a model without any
// keeps those of the base.
func Serialize(p *project.Project, existing string) (string, []project.Warning, error) {
	var warnings []project.Warning
	pass := p.Passthrough
	if !pass.From(Kind) {
		warnings = append(warnings, project.ForeignPassthrough(p, Kind))
		pass = project.Passthrough{}
	}
	if existing != "" {
		base, _, err := Parse(existing)
		if err != nil {
			return "", nil, errors.Wrap(errors.GetCode(err), err, "merge base")
		}
		pass = merge(base.Passthrough, pass)
		if len(p.BuildRequires) == 0 && len(base.BuildRequires) > 0 {
			withBase := *p
			withBase.BuildRequires = base.BuildRequires
			p = &withBase
		}
	}

	lead, inline, trailing := split(pass)
	filled := slots(p)

	var build, projectKeys []project.Field
	for _, f := range inline {
		if strings.HasPrefix(f.Key, tableBuildSystem+".") {
			build = append(build, f)
		} else {
			projectKeys = append(projectKeys, f)
		}
	}
	var blocks []string

	var roots strings.Builder
	for _, f := range lead {
		if !isTable(f.Value) {
			roots.WriteString(f.Value)
		}
	}
	if roots.Len() > 0 {
		blocks = append(blocks, roots.String())
	}
	for _, f := range lead {
		if isTable(f.Value) && !filled.covers(f.Key) {
			blocks = append(blocks, f.Value)
		}
	}

	if len(p.BuildRequires) > 0 || len(build) > 0 {
		var t strings.Builder
		t.WriteString("[" + tableBuildSystem + "]\n")
		if len(p.BuildRequires) > 0 {
			t.WriteString("requires = " + stringArray(project.FormatRequirements(p.BuildRequires)) + "\n")
		}
		for _, f := range build {
			if !filled.covers(f.Key) {
				t.WriteString(f.Value)
			}
		}
		blocks = append(blocks, t.String())
	}

	var b strings.Builder
	b.WriteString("[project]\n")
	for _, kv := range []struct{ key, value string }{
		{keyName, p.Name},
		{keyVersion, p.Version},
		{keyDescription, p.Description},
		{keyRequiresPython, p.RequiresPython},
	} {
		if kv.value != "" {
			b.WriteString(kv.key + " = " + tomlString(kv.value) + "\n")
		}
	}
	if len(p.Dependencies) > 0 {
		b.WriteString(keyDependencies + " = " + stringArray(project.FormatRequirements(p.Dependencies)) + "\n")
	}
	for _, f := range projectKeys {
		if !filled.covers(f.Key) {
			b.WriteString(f.Value)
		}
	}
	blocks = append(blocks, b.String())

	for _, ep := range p.EntryPoints {
		var header string
		switch ep.Name {
		case project.ConsoleScripts:
			header = "[project.scripts]\n"
		case project.GUIScripts:
			header = "[project.gui-scripts]\n"
		default:
			warnings = append(warnings, project.Lossy(ep.Name,
				"%s has no slot for entry point group %q; dropped", Kind, ep.Name))
			continue
		}
		var t strings.Builder
		t.WriteString(header)
		for _, e := range ep.Entries {
			t.WriteString(tomlKey(e.Name) + " = " + tomlString(e.Object) + "\n")
		}
		blocks = append(blocks, t.String())
	}

	if len(p.Groups) > 0 {
		groups := slices.Clone(p.Groups)
		slices.SortStableFunc(groups, func(a, b project.Group) int { return strings.Compare(a.Name, b.Name) })

		var t strings.Builder
		t.WriteString("[project.optional-dependencies]\n")
		for _, g := range groups {
			t.WriteString(tomlKey(g.Name) + " = " + stringArray(project.FormatRequirements(g.Dependencies)) + "\n")
		}
		blocks = append(blocks, t.String())
	}

	for _, f := range trailing {
		if !filled.covers(f.Key) {
			blocks = append(blocks, f.Value)
		}
	}
	return strings.Join(blocks, "\n"), warnings, nil
}

// split partitions passthrough into lead entries, inline [project] keys and
// trailing tables.
func split(pass project.Passthrough) (lead, inline, trailing []project.Field) {
	n := min(pass.Lead, len(pass.Entries))
	lead = pass.Entries[:n]
	for _, f := range pass.Entries[n:] {
		if isTable(f.Value) {
			trailing = append(trailing, f)
		} else {
			inline = append(inline, f)
		}
	}
	return lead, inline, trailing
}

// merge lays the model's passthrough over a base document's. Base entries
// keep their position; inline keys take the model's value when both have
// one; model entries the base lacks are added to their section.
func merge(base, model project.Passthrough) project.Passthrough {
	bLead, bInline, bTrailing := split(base)
	mLead, mInline, mTrailing := split(model)

	known := make(map[string]bool, base.Len())
	for _, f := range base.Entries {
		known[f.Key] = true
	}

	lead := slices.Clone(bLead)
	for _, f := range mLead {
		if !known[f.Key] {
			lead = append(lead, f)
		}
	}

	inline := slices.Clone(bInline)
	for _, f := range mInline {
		if i := slices.IndexFunc(inline, func(x project.Field) bool { return x.Key == f.Key }); i >= 0 {
			inline[i] = f
		} else {
			inline = append(inline, f)
		}
	}

	trailing := slices.Clone(bTrailing)
	for _, f := range mTrailing {
		if !known[f.Key] {
			trailing = append(trailing, f)
		}
	}

	entries := slices.Concat(lead, inline, trailing)
	if len(entries) == 0 {
		return project.Passthrough{}
	}
	return project.Passthrough{Source: Kind, Lead: len(lead), Entries: entries}
}

// filledSlots lists passthrough keys shadowed by model fields.
type filledSlots map[string]bool

func slots(p *project.Project) filledSlots {
	_, console := p.EntryPointGroup(project.ConsoleScripts)
	_, gui := p.EntryPointGroup(project.GUIScripts)
	return filledSlots{
		"project." + keyName:           p.Name != "",
		"project." + keyVersion:        p.Version != "",
		"project." + keyDescription:    p.Description != "",
		"project." + keyRequiresPython: p.RequiresPython != "",
		"project." + keyDependencies:   len(p.Dependencies) > 0,
		"project." + keyOptional:       len(p.Groups) > 0,
		"project." + keyScripts:        console,
		"project." + keyGUIScripts:     gui,
		keyBuildRequires:               len(p.BuildRequires) > 0,
	}
}

func (s filledSlots) covers(key string) bool {
	// A raw [build-system] table left over from a document whose requires
	// could not be read would be a second definition of the table.
	if key == tableBuildSystem {
		return s[keyBuildRequires]
	}
	for k, filled := range s {
		if filled && (key == k || strings.HasPrefix(key, k+".")) {
			return true
		}
	}
	return false
}

// stringArray renders items as a multi-line TOML array with a trailing comma.
func stringArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	var b strings.Builder
	b.WriteString("[\n")
	for _, it := range items {
		b.WriteString(indent + tomlString(it) + ",\n")
	}
	b.WriteString("]")
	return b.String()
}

// tomlString renders s as a TOML basic string.
func tomlString(s string) string {
	return strings.TrimPrefix(encodeEntry("v", s), "v = ")
}

// tomlKey renders k as a bare key when possible and a quoted key otherwise.
func tomlKey(k string) string {
	return strings.TrimSuffix(encodeEntry(k, ""), ` = ""`)
}

// encodeEntry encodes a single string entry with the TOML encoder and
// returns it without the trailing newline.
func encodeEntry(key, value string) string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(map[string]string{key: value}); err != nil {
		return key + ` = ""`
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
