package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/babelone/pkg/project"
)

type document struct {
	Name           string       `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Version        string       `json:"version,omitempty" toml:"version,omitempty" yaml:"version,omitempty"`
	Description    string       `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
	RequiresPython string       `json:"requires_python,omitempty" toml:"requires_python,omitempty" yaml:"requires_python,omitempty"`
	Dependencies   []dependency `json:"dependencies" toml:"dependencies" yaml:"dependencies"`
	Groups         []group      `json:"groups,omitempty" toml:"groups,omitempty" yaml:"groups,omitempty"`
	EntryPoints    []entryGroup `json:"entry_points,omitempty" toml:"entry_points,omitempty" yaml:"entry_points,omitempty"`
	BuildRequires  []dependency `json:"build_requires,omitempty" toml:"build_requires,omitempty" yaml:"build_requires,omitempty"`
	Passthrough    *passthrough `json:"passthrough,omitempty" toml:"passthrough,omitempty" yaml:"passthrough,omitempty"`
}

type dependency struct {
	Name        string   `json:"name" toml:"name" yaml:"name"`
	Extras      []string `json:"extras,omitempty" toml:"extras,omitempty" yaml:"extras,omitempty"`
	Constraints []string `json:"constraints,omitempty" toml:"constraints,omitempty" yaml:"constraints,omitempty"`
	URL         string   `json:"url,omitempty" toml:"url,omitempty" yaml:"url,omitempty"`
	Marker      string   `json:"marker,omitempty" toml:"marker,omitempty" yaml:"marker,omitempty"`
	Requirement string   `json:"requirement" toml:"requirement" yaml:"requirement"`
}

type group struct {
	Name         string       `json:"name" toml:"name" yaml:"name"`
	Dependencies []dependency `json:"dependencies" toml:"dependencies" yaml:"dependencies"`
}

type entryGroup struct {
	Name    string   `json:"name" toml:"name" yaml:"name"`
	Entries []string `json:"entries" toml:"entries" yaml:"entries"`
}

type passthrough struct {
	Source  string  `json:"source" toml:"source" yaml:"source"`
	Entries []field `json:"entries" toml:"entries" yaml:"entries"`
}

type field struct {
	Key   string `json:"key" toml:"key" yaml:"key"`
	Value string `json:"value" toml:"value" yaml:"value"`
}

func newDocument(p *project.Project) document {
	doc := document{
		Name:           p.Name,
		Version:        p.Version,
		Description:    p.Description,
		RequiresPython: p.RequiresPython,
		Dependencies:   dependencies(p.Dependencies),
	}
	for _, g := range p.Groups {
		doc.Groups = append(doc.Groups, group{Name: g.Name, Dependencies: dependencies(g.Dependencies)})
	}
	for _, ep := range p.EntryPoints {
		eg := entryGroup{Name: ep.Name, Entries: make([]string, len(ep.Entries))}
		for i, e := range ep.Entries {
			eg.Entries[i] = e.String()
		}
		doc.EntryPoints = append(doc.EntryPoints, eg)
	}
	if len(p.BuildRequires) > 0 {
		doc.BuildRequires = dependencies(p.BuildRequires)
	}
	if p.Passthrough.Len() > 0 {
		pt := &passthrough{Source: p.Passthrough.Source}
		for _, f := range p.Passthrough.Entries {
			pt.Entries = append(pt.Entries, field{Key: f.Key, Value: f.Value})
		}
		doc.Passthrough = pt
	}
	return doc
}

func dependencies(deps []project.Dependency) []dependency {
	out := make([]dependency, len(deps))
	for i, d := range deps {
		out[i] = dependency{
			Name:        d.Name,
			Extras:      d.Extras,
			URL:         d.URL,
			Marker:      d.Marker,
			Requirement: d.String(),
		}
		for _, c := range d.Constraints {
			out[i].Constraints = append(out[i].Constraints, c.String())
		}
	}
	return out
}

// WriteJSON encodes p as indented JSON and writes it to w.
func WriteJSON(p *project.Project, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newDocument(p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteTOML encodes p as a TOML document and writes it to w.
func WriteTOML(p *project.Project, w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(newDocument(p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes p as a YAML document and writes it to w.
func WriteYAML(p *project.Project, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(p)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}
