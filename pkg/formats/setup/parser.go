package setup

import (
	"maps"

	"github.com/matzehuels/babelone/pkg/errors"
)

// statement is one simple statement, or the header of a compound statement
// together with its body.
type statement struct {
	toks     []token
	compound bool
	body     []statement
}

var compoundKeywords = map[string]bool{
	"if": true, "elif": true, "else": true, "for": true, "while": true,
	"with": true, "def": true, "class": true, "try": true, "except": true,
	"finally": true, "async": true, "match": true, "case": true,
}

func syntaxError(t token, format string, args ...any) error {
	return errors.At(errors.New(errors.ErrCodeUnsupportedSyntax, format, args...), t.line, t.col)
}

type stmtParser struct {
	toks []token
	i    int
}

// parseStatements groups tokens into a statement tree. Only the block
// structure is recovered; expressions stay as token slices.
func parseStatements(toks []token) ([]statement, error) {
	p := &stmtParser{toks: toks}
	stmts, err := p.block()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, syntaxError(t, "unexpected dedent")
	}
	return stmts, nil
}

func (p *stmtParser) peek() token {
	if p.i >= len(p.toks) {
		return token{kind: tokEOF}
	}
	return p.toks[p.i]
}

func (p *stmtParser) block() ([]statement, error) {
	var out []statement
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF, tokDedent:
			return out, nil
		case tokIndent:
			return nil, syntaxError(t, "unexpected indent")
		}

		start := p.i
		for p.peek().kind != tokNewline && p.peek().kind != tokEOF {
			p.i++
		}
		line := p.toks[start:p.i]
		if p.peek().kind == tokNewline {
			p.i++
		}
		if len(line) == 0 {
			continue
		}

		var body []statement
		hasBlock := p.peek().kind == tokIndent
		if hasBlock {
			if !line[len(line)-1].is(":") {
				return nil, syntaxError(p.peek(), "unexpected indent")
			}
			p.i++
			b, err := p.block()
			if err != nil {
				return nil, err
			}
			body = b
			if p.peek().kind == tokDedent {
				p.i++
			}
		}

		stmts, err := splitLine(line, body, hasBlock)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
}

func splitLine(line []token, body []statement, hasBlock bool) ([]statement, error) {
	first := line[0]
	if first.is("@") {
		return []statement{{toks: line}}, nil
	}
	if first.kind != tokName || !compoundKeywords[first.text] || !isCompoundHeader(line) {
		if hasBlock {
			return nil, syntaxError(first, "unexpected indent")
		}
		return simpleStatements(line), nil
	}

	colon := indexDepth0(line, ":")
	header := line[:colon+1]
	if inline := line[colon+1:]; len(inline) > 0 {
		if hasBlock {
			return nil, syntaxError(inline[0], "unexpected indent")
		}
		body = simpleStatements(inline)
	} else if !hasBlock {
		return nil, syntaxError(first, "expected an indented block after '%s'", first.text)
	}
	return []statement{{toks: header, compound: true, body: body}}, nil
}

// isCompoundHeader tells soft keywords (match, case) used as plain names
// apart from real compound statement headers.
func isCompoundHeader(line []token) bool {
	if len(line) < 2 || indexDepth0(line, ":") < 0 {
		return false
	}
	next := line[1]
	return !next.is("=") && !next.is(".")
}

func simpleStatements(toks []token) []statement {
	var out []statement
	for _, part := range splitDepth0(toks, ";") {
		if len(part) > 0 {
			out = append(out, statement{toks: part})
		}
	}
	return out
}

// indexDepth0 returns the index of the first op token outside brackets, or -1.
func indexDepth0(toks []token, op string) int {
	depth := 0
	for i, t := range toks {
		if t.kind != tokOp {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		default:
			if depth == 0 && t.text == op {
				return i
			}
		}
	}
	return -1
}

// splitDepth0 splits toks at op tokens outside brackets. A trailing empty
// part is dropped.
func splitDepth0(toks []token, op string) [][]token {
	var parts [][]token
	for {
		i := indexDepth0(toks, op)
		if i < 0 {
			break
		}
		parts = append(parts, toks[:i])
		toks = toks[i+1:]
	}
	if len(toks) > 0 {
		parts = append(parts, toks)
	}
	return parts
}

// matchingClose returns the index of the bracket closing toks[open].
func matchingClose(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		if toks[i].kind != tokOp {
			continue
		}
		switch toks[i].text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// setupCall is a located call to setup() with its argument token slices and
// the constants visible at the point of the call.
type setupCall struct {
	callee string
	at     token
	args   [][]token
	consts map[string]literal
}

// scanner walks module-level statements and the bodies of module-level if
// chains, recording literal constants and setup() calls in source order.
type scanner struct {
	consts map[string]literal
	calls  []setupCall
}

func newScanner() *scanner {
	return &scanner{consts: make(map[string]literal)}
}

func (s *scanner) scan(stmts []statement) {
	for _, st := range stmts {
		if st.compound {
			switch st.toks[0].text {
			case "if", "elif", "else":
				s.scan(st.body)
			}
			continue
		}
		if name, value, ok := assignment(st.toks); ok {
			if lit, ok := evalLiteral(value, s.consts); ok {
				s.consts[name] = lit
			} else {
				delete(s.consts, name)
			}
			continue
		}
		if call, ok := matchSetupCall(st.toks); ok {
			call.consts = maps.Clone(s.consts)
			s.calls = append(s.calls, call)
		}
	}
}

// assignment matches "NAME = value", "NAME: T = value" and augmented
// assignments. Augmented assignments report an empty value so the target
// stops being a known constant.
func assignment(toks []token) (name string, value []token, ok bool) {
	if len(toks) < 2 || toks[0].kind != tokName {
		return "", nil, false
	}
	switch next := toks[1]; {
	case next.is("="):
		return toks[0].text, toks[2:], true
	case next.is(":"):
		if eq := indexDepth0(toks[2:], "="); eq >= 0 {
			return toks[0].text, toks[2+eq+1:], true
		}
	case next.kind == tokOp && len(next.text) > 1 && next.text[len(next.text)-1] == '=' &&
		next.text != "==" && next.text != "<=" && next.text != ">=" && next.text != "!=":
		return toks[0].text, nil, true
	}
	return "", nil, false
}

// matchSetupCall matches "setup(...)" and "module.setup(...)" statements.
func matchSetupCall(toks []token) (setupCall, bool) {
	if len(toks) < 3 || toks[0].kind != tokName {
		return setupCall{}, false
	}
	callee := toks[0].text
	last := toks[0].text
	i := 1
	for i+1 < len(toks) && toks[i].is(".") && toks[i+1].kind == tokName {
		callee += "." + toks[i+1].text
		last = toks[i+1].text
		i += 2
	}
	if last != "setup" || i >= len(toks) || !toks[i].is("(") || matchingClose(toks, i) != len(toks)-1 {
		return setupCall{}, false
	}
	return setupCall{
		callee: callee,
		at:     toks[0],
		args:   splitDepth0(toks[i+1:len(toks)-1], ","),
	}, true
}
