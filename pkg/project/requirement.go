package project

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/version"
)

var depNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

// ParseRequirement splits a PEP 508 requirement string into name, extras,
// version specifier (or direct URL) and environment marker. The name ends at
// the first operator, bracket, "@", ";", "(" or whitespace. Every failure,
// including a bad name or extra, is a MALFORMED_CONSTRAINT.
func ParseRequirement(s string) (Dependency, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "empty requirement")
	}

	name := depNameRE.FindString(s)
	if name == "" {
		return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "requirement %q has no distribution name", s)
	}
	if err := errors.ValidatePythonPackageName(name); err != nil {
		return Dependency{}, errors.Wrap(errors.ErrCodeMalformedConstraint, err, "requirement %q", s)
	}
	dep := Dependency{Name: NormalizeName(name)}
	rest := strings.TrimSpace(s[len(name):])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "unterminated extras in %q", s)
		}
		extras, err := parseExtras(rest[1:end])
		if err != nil {
			return Dependency{}, errors.Wrap(errors.ErrCodeMalformedConstraint, err, "requirement %q", s)
		}
		dep.Extras = extras
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		url, marker, _ := cutURLMarker(strings.TrimSpace(rest[1:]))
		if url == "" {
			return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "missing URL after '@' in %q", s)
		}
		dep.URL = url
		dep.Marker = marker
		return dep, nil
	}

	spec, marker, hasMarker := strings.Cut(rest, ";")
	if hasMarker {
		dep.Marker = strings.TrimSpace(marker)
		if dep.Marker == "" {
			return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "empty environment marker in %q", s)
		}
	}

	spec = strings.TrimSpace(spec)
	if strings.HasPrefix(spec, "(") && strings.HasSuffix(spec, ")") {
		spec = spec[1 : len(spec)-1]
		if strings.TrimSpace(spec) == "" {
			return Dependency{}, errors.New(errors.ErrCodeMalformedConstraint, "empty parenthesized specifier in %q", s)
		}
	}
	constraints, err := version.ParseSpecifier(spec)
	if err != nil {
		return Dependency{}, errors.Wrap(errors.GetCode(err), err, "requirement %q", s)
	}
	dep.Constraints = constraints
	return dep, nil
}

// cutURLMarker splits "url ; marker". A marker after a URL must be preceded
// by whitespace so that ";" inside the URL is not mistaken for it.
func cutURLMarker(s string) (url, marker string, ok bool) {
	for i := 1; i < len(s); i++ {
		if s[i] == ';' && (s[i-1] == ' ' || s[i-1] == '\t') {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
		}
	}
	return strings.TrimSpace(s), "", false
}

func parseExtras(s string) ([]string, error) {
	var extras []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if err := errors.ValidateExtraName(e); err != nil {
			return nil, err
		}
		extras = append(extras, e)
	}
	return SortExtras(extras), nil
}

// SortExtras returns extras sorted and deduplicated, or nil when empty.
func SortExtras(extras []string) []string {
	if len(extras) == 0 {
		return nil
	}
	out := slices.Clone(extras)
	slices.Sort(out)
	return slices.Compact(out)
}

// String renders the dependency as a PEP 508 requirement:
// name[extras]clauses; marker, omitting empty parts.
func (d Dependency) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if len(d.Extras) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(SortExtras(d.Extras), ","))
		b.WriteByte(']')
	}
	if d.URL != "" {
		b.WriteString(" @ ")
		b.WriteString(d.URL)
		if d.Marker != "" {
			b.WriteString(" ; ")
			b.WriteString(d.Marker)
		}
		return b.String()
	}
	b.WriteString(d.Constraints.String())
	if d.Marker != "" {
		b.WriteString("; ")
		b.WriteString(d.Marker)
	}
	return b.String()
}

// ParseRequirements parses a list of requirement strings into one group,
// enforcing the duplicate invariant.
func ParseRequirements(group string, reqs []string) ([]Dependency, error) {
	deps := make([]Dependency, 0, len(reqs))
	for _, r := range reqs {
		d, err := ParseRequirement(r)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	if err := CheckDuplicates(group, deps); err != nil {
		return nil, err
	}
	return deps, nil
}

// FormatRequirements renders each dependency with [Dependency.String].
func FormatRequirements(deps []Dependency) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.String()
	}
	return out
}
