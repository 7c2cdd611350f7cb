package pyproject

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// chunk is the root region of a TOML document or one table: the comment
// block directly above its header, the header line and the body.
type chunk struct {
	path   []string
	array  bool
	lines  []string
	header int // index of the header line in lines, -1 for the root region
	first  int // line number of lines[0]
}

func (c chunk) key() string { return strings.Join(c.path, ".") }

func (c chunk) headerLine() int { return c.first + c.header }

// statements returns the key/value statements of the body.
func (c chunk) statements() []statement {
	return statements(c.lines[c.header+1:], c.first+c.header+1)
}

// text returns the chunk with trailing blank lines removed.
func (c chunk) text() string {
	lines := c.lines
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "")
}

// splitChunks splits a TOML document at its table headers. Header-like
// lines inside multi-line strings and arrays are not headers.
func splitChunks(text string) []chunk {
	chunks := []chunk{{header: -1, first: 1}}
	var st lexState
	for i, line := range splitLines(text) {
		if st.clean() {
			if path, array, ok := parseHeader(line); ok {
				prev := &chunks[len(chunks)-1]
				lead := trailingComments(prev)
				chunks = append(chunks, chunk{
					path:   path,
					array:  array,
					lines:  append(lead, line),
					header: len(lead),
					first:  i + 1 - len(lead),
				})
				continue
			}
		}
		cur := &chunks[len(chunks)-1]
		cur.lines = append(cur.lines, line)
		st.feed(line)
	}
	return chunks
}

// splitLines splits text into lines that each end in "\n".
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" {
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	lines := strings.SplitAfter(text, "\n")
	return lines[:len(lines)-1]
}

// trailingComments detaches the comment lines that end c's body and
// returns them.
func trailingComments(c *chunk) []string {
	i := len(c.lines)
	for i > c.header+1 && strings.HasPrefix(strings.TrimSpace(c.lines[i-1]), "#") {
		i--
	}
	lead := slices.Clone(c.lines[i:])
	c.lines = c.lines[:i]
	return lead
}

// statement is one key/value pair with the comment lines directly above it.
type statement struct {
	path     []string // dotted key
	comments string
	body     string // key line and the lines its value continues on
	line     int    // line number of the key
}

func (s statement) text() string { return s.comments + s.body }

// rebase returns the statement with the first part of its key removed, so
// a root "project.urls.home = ..." can be written inside [project].
func (s statement) rebase() string {
	line, more, _ := strings.Cut(s.body, "\n")
	trimmed := strings.TrimLeft(line, " \t")
	_, rest, _ := parseKey(trimmed)
	keys := make([]string, len(s.path)-1)
	for i, part := range s.path[1:] {
		keys[i] = tomlKey(part)
	}
	return s.comments + line[:len(line)-len(trimmed)] + strings.Join(keys, ".") + " " + rest + "\n" + more
}

// statements splits a table body whose first line is line number first
// into key/value statements. Blank lines and comments that are not
// directly above a statement are dropped.
func statements(lines []string, first int) []statement {
	var out []statement
	var pending []string
	var st lexState
	for i, line := range lines {
		if !st.clean() {
			out[len(out)-1].body += line
			st.feed(line)
			continue
		}
		t := strings.TrimSpace(line)
		switch {
		case t == "":
			pending = nil
		case strings.HasPrefix(t, "#"):
			pending = append(pending, line)
		default:
			path, _, ok := parseKey(t)
			if !ok {
				path = []string{t}
			}
			out = append(out, statement{
				path:     path,
				comments: strings.Join(pending, ""),
				body:     line,
				line:     first + i,
			})
			pending = nil
			st.feed(line)
		}
	}
	return out
}

// keyLines maps every table path and dotted key in chunks to the line
// that first defines it.
func keyLines(chunks []chunk) map[string]int {
	lines := make(map[string]int)
	add := func(path []string, line int) {
		for i := range path {
			if k := strings.Join(path[:i+1], "."); lines[k] == 0 {
				lines[k] = line
			}
		}
	}
	for _, c := range chunks {
		if c.header >= 0 {
			add(c.path, c.headerLine())
		}
		for _, s := range c.statements() {
			add(slices.Concat(c.path, s.path), s.line)
		}
	}
	return lines
}

// lexState tracks the parts of TOML syntax that can span lines: multi-line
// strings and bracketed values.
type lexState struct {
	multi string
	depth int
}

func (s *lexState) clean() bool { return s.multi == "" && s.depth == 0 }

func (s *lexState) feed(line string) {
	for i := 0; i < len(line); i++ {
		if s.multi != "" {
			switch {
			case strings.HasPrefix(line[i:], s.multi):
				i += len(s.multi) - 1
				s.multi = ""
			case s.multi == `"""` && line[i] == '\\':
				i++
			}
			continue
		}
		switch c := line[i]; c {
		case '#':
			return
		case '"', '\'':
			if triple := strings.Repeat(string(c), 3); strings.HasPrefix(line[i:], triple) {
				s.multi = triple
				i += 2
				continue
			}
			j := i + 1
			for j < len(line) && line[j] != c {
				if c == '"' && line[j] == '\\' {
					j++
				}
				j++
			}
			i = j
		case '[', '{':
			s.depth++
		case ']', '}':
			if s.depth > 0 {
				s.depth--
			}
		}
	}
}

// parseHeader recognizes "[a.b]" and "[[a.b]]" table header lines.
func parseHeader(line string) (path []string, array bool, ok bool) {
	t := strings.TrimSpace(line)
	if !strings.HasPrefix(t, "[") {
		return nil, false, false
	}
	closer := "]"
	t = t[1:]
	if strings.HasPrefix(t, "[") {
		array, closer = true, "]]"
		t = t[1:]
	}
	path, rest, ok := parseKey(t)
	if !ok || !strings.HasPrefix(rest, closer) {
		return nil, false, false
	}
	rest = strings.TrimSpace(rest[len(closer):])
	if rest != "" && !strings.HasPrefix(rest, "#") {
		return nil, false, false
	}
	return path, array, true
}

// parseKey reads a dotted TOML key from the start of s and returns its
// parts and the remaining text.
func parseKey(s string) (parts []string, rest string, ok bool) {
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return nil, "", false
		}
		var part string
		switch s[0] {
		case '"':
			end := closingQuote(s)
			if end < 0 {
				return nil, "", false
			}
			v, err := strconv.Unquote(s[:end+1])
			if err != nil {
				return nil, "", false
			}
			part, s = v, s[end+1:]
		case '\'':
			end := strings.IndexByte(s[1:], '\'')
			if end < 0 {
				return nil, "", false
			}
			part, s = s[1:end+1], s[end+2:]
		default:
			n := 0
			for n < len(s) && isBareKeyChar(s[n]) {
				n++
			}
			if n == 0 {
				return nil, "", false
			}
			part, s = s[:n], s[n:]
		}
		parts = append(parts, part)

		s = strings.TrimLeft(s, " \t")
		if !strings.HasPrefix(s, ".") {
			return parts, s, true
		}
		s = s[1:]
	}
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

func isBareKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-'
}

// isTable reports whether a passthrough value holds a whole table rather
// than a key/value statement.
func isTable(value string) bool {
	for line := range strings.SplitSeq(value, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		return strings.HasPrefix(t, "[")
	}
	return false
}

// arrayKey names the n-th [[path]] table.
func arrayKey(path string, n int) string {
	return fmt.Sprintf("%s[%d]", path, n)
}
