package setup

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type literalKind int

const (
	litString literalKind = iota
	litAtom               // True, False, None or a number, kept as source text
	litList
	litTuple
	litDict
)

// literal is a statically known Python value. Dict keys are always strings.
type literal struct {
	kind  literalKind
	str   string
	items []literal
	keys  []string
	line  int
	col   int
}

// evalLiteral evaluates toks as a literal expression, resolving bare names
// through consts. It reports false for anything that would need execution.
func evalLiteral(toks []token, consts map[string]literal) (literal, bool) {
	if len(toks) == 0 {
		return literal{}, false
	}
	e := &evaluator{toks: toks, consts: consts}
	v, ok := e.value()
	if !ok || e.i != len(toks) {
		return literal{}, false
	}
	return v, true
}

type evaluator struct {
	toks   []token
	i      int
	consts map[string]literal
}

func (e *evaluator) at(op string) bool {
	return e.i < len(e.toks) && e.toks[e.i].is(op)
}

func (e *evaluator) value() (literal, bool) {
	if e.i >= len(e.toks) {
		return literal{}, false
	}
	t := e.toks[e.i]
	pos := literal{line: t.line, col: t.col}

	switch t.kind {
	case tokString:
		return e.concat()
	case tokNumber:
		e.i++
		pos.kind, pos.str = litAtom, t.text
		return pos, true
	case tokName:
		e.i++
		switch t.text {
		case "True", "False", "None":
			pos.kind, pos.str = litAtom, t.text
			return pos, true
		}
		v, ok := e.consts[t.text]
		return v, ok
	case tokOp:
		switch t.text {
		case "-":
			if e.i+1 < len(e.toks) && e.toks[e.i+1].kind == tokNumber {
				e.i += 2
				pos.kind, pos.str = litAtom, "-"+e.toks[e.i-1].text
				return pos, true
			}
		case "[":
			e.i++
			items, _, ok := e.sequence("]")
			pos.kind, pos.items = litList, items
			return pos, ok
		case "(":
			e.i++
			items, comma, ok := e.sequence(")")
			if ok && len(items) == 1 && !comma {
				return items[0], true
			}
			pos.kind, pos.items = litTuple, items
			return pos, ok
		case "{":
			e.i++
			return e.dict(pos)
		}
	}
	return literal{}, false
}

// concat evaluates a run of adjacent string tokens (implicit
// concatenation). Byte strings and f-strings are not literals.
func (e *evaluator) concat() (literal, bool) {
	first := e.toks[e.i]
	var b strings.Builder
	for e.i < len(e.toks) && e.toks[e.i].kind == tokString {
		s, ok := decodeString(e.toks[e.i].text)
		if !ok {
			return literal{}, false
		}
		b.WriteString(s)
		e.i++
	}
	return literal{kind: litString, str: b.String(), line: first.line, col: first.col}, true
}

func (e *evaluator) sequence(closer string) (items []literal, comma, ok bool) {
	for {
		if e.at(closer) {
			e.i++
			return items, comma, true
		}
		v, valid := e.value()
		if !valid {
			return nil, false, false
		}
		items = append(items, v)
		switch {
		case e.at(","):
			e.i++
			comma = true
		case e.at(closer):
		default:
			return nil, false, false
		}
	}
}

func (e *evaluator) dict(pos literal) (literal, bool) {
	pos.kind = litDict
	for {
		if e.at("}") {
			e.i++
			return pos, true
		}
		k, ok := e.value()
		if !ok || k.kind != litString || !e.at(":") {
			return literal{}, false
		}
		e.i++
		v, ok := e.value()
		if !ok {
			return literal{}, false
		}
		pos.keys = append(pos.keys, k.str)
		pos.items = append(pos.items, v)
		switch {
		case e.at(","):
			e.i++
		case e.at("}"):
		default:
			return literal{}, false
		}
	}
}

// stringItems returns the strings of a list or tuple of strings. A single
// string is split into lines with comments and blank lines removed, the way
// setuptools reads multi-line requirement strings.
func stringItems(l literal) ([]literal, bool) {
	switch l.kind {
	case litString:
		var out []literal
		for line := range strings.SplitSeq(l.str, "\n") {
			if i := strings.Index(line, " #"); i >= 0 {
				line = line[:i]
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			out = append(out, literal{kind: litString, str: line, line: l.line, col: l.col})
		}
		return out, true
	case litList, litTuple:
		for _, it := range l.items {
			if it.kind != litString {
				return nil, false
			}
		}
		return l.items, true
	}
	return nil, false
}

// decodeString returns the value of a Python string token. It reports false
// for byte strings, f-strings and escapes it cannot decode.
func decodeString(tok string) (string, bool) {
	q := strings.IndexAny(tok, `"'`)
	prefix := strings.ToLower(tok[:q])
	if strings.ContainsAny(prefix, "fb") {
		return "", false
	}
	body := tok[q:]
	n := 1
	if len(body) >= 6 && body[1] == body[0] && body[2] == body[0] {
		n = 3
	}
	body = body[n : len(body)-n]
	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body)
}

func unescape(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(c)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(v))
			i = j - 1
		case 'x', 'u', 'U':
			width := 2
			switch c {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if i+width >= len(s) {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", false
			}
			b.WriteRune(rune(v))
			i += width
		case 'N':
			return "", false
		default:
			b.WriteByte('\\')
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

// python renders the literal as canonical Python source.
func (l literal) python() string {
	switch l.kind {
	case litString:
		return quote(l.str)
	case litAtom:
		return l.str
	case litList:
		return "[" + joinPython(l.items) + "]"
	case litTuple:
		if len(l.items) == 1 {
			return "(" + l.items[0].python() + ",)"
		}
		return "(" + joinPython(l.items) + ")"
	case litDict:
		parts := make([]string, len(l.keys))
		for i, k := range l.keys {
			parts[i] = quote(k) + ": " + l.items[i].python()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func joinPython(items []literal) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.python()
	}
	return strings.Join(parts, ", ")
}

// quote renders s as a double-quoted Python string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
