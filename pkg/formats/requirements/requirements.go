// Package requirements parses and renders pinned dependency lists in the
// requirements.txt format.
//
// The format holds one PEP 508 requirement per line and nothing else: no
// project metadata, no groups. Parsing drops comments and blank lines and
// reports pip option lines as warnings. Rendering drops everything the
// format cannot hold and reports each loss as a LossyTranslation warning.
package requirements

import (
	"regexp"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
	"github.com/matzehuels/babelone/pkg/project"
)

// Kind is the format identifier used in passthrough sources and messages.
const Kind = "pinned"

var urlRequirementRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*\s*(\[[^\]]*\])?\s*@`)

// Supports reports whether filename follows the requirements file naming
// convention (requirements.txt, requirements-dev.txt, ...).
func Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

// logicalLine is a requirement line after continuation joining, tagged with
// the physical line it started on.
type logicalLine struct {
	text string
	line int
}

// Parse reads requirements text into a project with a single default
// dependency group. Option lines (-r, -e, --index-url) and bare URLs have
// no canonical slot and are reported as UnparsedField warnings.
func Parse(text string) (*project.Project, []project.Warning, error) {
	p := &project.Project{}
	var warnings []project.Warning

	for _, ll := range joinContinuations(text) {
		line := strings.TrimSpace(stripComment(ll.text))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "-") {
			warnings = append(warnings, project.Unparsed(firstField(line), ll.line,
				"pip option %q has no canonical slot; skipped", line))
			continue
		}
		if isBareReference(line) {
			warnings = append(warnings, project.Unparsed(line, ll.line,
				"unnamed URL or path requirement %q skipped", line))
			continue
		}
		if i := strings.Index(line, " --"); i >= 0 {
			warnings = append(warnings, project.Unparsed(firstField(line[i+1:]), ll.line,
				"per-requirement options %q dropped", strings.TrimSpace(line[i:])))
			line = strings.TrimSpace(line[:i])
		}

		dep, err := project.ParseRequirement(line)
		if err != nil {
			return nil, nil, errors.At(err, ll.line, 0)
		}
		p.Dependencies = append(p.Dependencies, dep)
		if err := project.CheckDuplicates(project.DefaultGroup, p.Dependencies); err != nil {
			return nil, nil, errors.At(err, ll.line, 0)
		}
	}

	return p, warnings, nil
}

// joinContinuations splits text into lines and joins lines ending in a
// backslash with their successor. A backslash inside a comment does not
// continue the line.
func joinContinuations(text string) []logicalLine {
	physical := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []logicalLine
	var cur strings.Builder
	start := 0
	for i, l := range physical {
		if cur.Len() == 0 {
			start = i + 1
		}
		if joined := cur.String() + l; strings.HasSuffix(l, `\`) && stripComment(joined) == joined {
			cur.WriteString(strings.TrimSuffix(l, `\`))
			continue
		}
		cur.WriteString(l)
		out = append(out, logicalLine{text: cur.String(), line: start})
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, logicalLine{text: cur.String(), line: start})
	}
	return out
}

// stripComment removes a "#" comment that starts the line or follows
// whitespace. A "#" inside a token (URL fragments like #egg=) is kept.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] != '#' {
			continue
		}
		if i == 0 || line[i-1] == ' ' || line[i-1] == '\t' {
			return line[:i]
		}
	}
	return line
}

func isBareReference(line string) bool {
	if strings.HasPrefix(line, ".") || strings.HasPrefix(line, "/") {
		return true
	}
	return strings.Contains(line, "://") && !urlRequirementRE.MatchString(line)
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

// Serialize renders the default dependency group, one requirement per line.
// Everything else in the model is dropped with a LossyTranslation warning.
func Serialize(p *project.Project) (string, []project.Warning) {
	return SerializeGroup(p.Dependencies), project.DroppedMetadata(p, Kind)
}

// SerializeGroup renders deps as a requirements file body.
func SerializeGroup(deps []project.Dependency) string {
	var b strings.Builder
	for _, d := range deps {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}
