// Package translate converts Python build specifications between the
// pinned list (requirements.txt), imperative script (setup.py) and
// declarative manifest (pyproject.toml) formats.
//
// Every format parses into the canonical [project.Project] model and
// serializes back from it. The package holds no state: each call owns the
// model it builds.
//
// # Usage
//
//	res, err := translate.Translate(translate.Manifest, src, translate.Pinned, "", translate.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, w := range res.Warnings {
//	    log.Warn(w)
//	}
package translate

import (
	"fmt"

	"github.com/matzehuels/babelone/pkg/formats/requirements"
	"github.com/matzehuels/babelone/pkg/project"
)

// Options tunes a translation.
type Options struct {
	// SplitGroups renders each named dependency group as its own pinned
	// list in Result.Extra when the target is Pinned, instead of dropping
	// the groups with a warning.
	SplitGroups bool
}

// Result is the outcome of a translation.
type Result struct {
	Text     string
	Extra    map[string]string // extra outputs keyed by file name
	Warnings []project.Warning
}

// Parse reads text of the given kind into the canonical model.
func Parse(k Kind, text string) (*project.Project, []project.Warning, error) {
	f, err := lookup(k)
	if err != nil {
		return nil, nil, err
	}
	return f.parse(text)
}

// Serialize renders p in the given kind. existing, when not empty, is the
// current content of the target file; formats with passthrough sections
// use it as a merge base.
func Serialize(k Kind, p *project.Project, existing string) (string, []project.Warning, error) {
	f, err := lookup(k)
	if err != nil {
		return "", nil, err
	}
	return f.serialize(p, existing)
}

// Translate parses text as src and renders it as dst. Warnings from both
// steps are returned in order.
func Translate(src Kind, text string, dst Kind, existing string, opts Options) (*Result, error) {
	if _, err := lookup(dst); err != nil {
		return nil, err
	}
	p, warnings, err := Parse(src, text)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if opts.SplitGroups && dst == Pinned && len(p.Groups) > 0 {
		res.Extra = make(map[string]string, len(p.Groups))
		for i, name := range groupFileNames(p.Groups) {
			res.Extra[name] = requirements.SerializeGroup(p.Groups[i].Dependencies)
		}
		trimmed := *p
		trimmed.Groups = nil
		p = &trimmed
	}

	out, more, err := Serialize(dst, p, existing)
	if err != nil {
		return nil, err
	}
	res.Text = out
	res.Warnings = append(warnings, more...)
	return res, nil
}

// GroupFileName names the pinned list that holds a split dependency group.
func GroupFileName(group string) string {
	return "requirements-" + project.NormalizeName(group) + ".txt"
}

// groupFileNames returns one distinct file name per group, in group order.
// Names that normalize alike ("a_b", "a-b") get a numeric suffix from the
// second occurrence on: requirements-a-b.txt, requirements-a-b-2.txt.
func groupFileNames(groups []project.Group) []string {
	names := make([]string, len(groups))
	used := make(map[string]bool, len(groups))
	for i, g := range groups {
		name := GroupFileName(g.Name)
		for n := 2; used[name]; n++ {
			name = GroupFileName(fmt.Sprintf("%s-%d", g.Name, n))
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// Create renders an empty model as a scaffold of the given kind.
func Create(k Kind) (string, error) {
	out, _, err := Serialize(k, &project.Project{}, "")
	return out, err
}
