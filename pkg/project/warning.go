package project

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal translation issue.
type WarningKind string

const (
	// LossyTranslation: the target format cannot represent some data in the
	// model, which was dropped.
	LossyTranslation WarningKind = "LossyTranslation"
	// UnparsedField: a syntactically valid fragment of the source could not
	// be interpreted and was kept as passthrough or skipped.
	UnparsedField WarningKind = "UnparsedField"
)

// Warning is returned alongside a successful parse or serialization.
// Callers decide whether to treat warnings as failures.
type Warning struct {
	Kind    WarningKind
	Field   string // field, group or keyword the warning is about
	Message string
	Line    int // 1-based source line, 0 when unknown
}

// String formats the warning for display.
func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", w.Kind, w.Line, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// Lossy builds a LossyTranslation warning about field.
func Lossy(field, format string, args ...any) Warning {
	return Warning{Kind: LossyTranslation, Field: field, Message: fmt.Sprintf(format, args...)}
}

// Unparsed builds an UnparsedField warning about field at line.
func Unparsed(field string, line int, format string, args ...any) Warning {
	return Warning{Kind: UnparsedField, Field: field, Line: line, Message: fmt.Sprintf(format, args...)}
}

// DroppedMetadata reports every canonical field of p that a target format
// without metadata slots cannot hold. Named groups get one warning each.
func DroppedMetadata(p *Project, target string) []Warning {
	var ws []Warning
	for _, f := range []struct{ name, value string }{
		{"name", p.Name},
		{"version", p.Version},
		{"description", p.Description},
		{"requires-python", p.RequiresPython},
	} {
		if f.value != "" {
			ws = append(ws, Lossy(f.name, "%s has no slot for %s %q; dropped", target, f.name, f.value))
		}
	}
	for _, g := range p.Groups {
		ws = append(ws, Lossy(g.Name, "%s cannot represent dependency group %q; dropped [%s]",
			target, g.Name, strings.Join(FormatRequirements(g.Dependencies), ", ")))
	}
	if len(p.BuildRequires) > 0 {
		ws = append(ws, Lossy(BuildGroup, "%s has no slot for build requirements; dropped [%s]",
			target, strings.Join(FormatRequirements(p.BuildRequires), ", ")))
	}
	for _, e := range p.EntryPoints {
		ws = append(ws, Lossy(e.Name, "%s has no slot for entry points %q; dropped", target, e.Name))
	}
	if p.Passthrough.Len() > 0 && p.Passthrough.Source != target {
		ws = append(ws, ForeignPassthrough(p, target))
	}
	return ws
}

// ForeignPassthrough reports passthrough entries from another format that
// the target drops.
func ForeignPassthrough(p *Project, target string) Warning {
	return Lossy("passthrough", "%s cannot carry %s-specific fields %v; dropped",
		target, p.Passthrough.Source, p.Passthrough.Keys())
}
