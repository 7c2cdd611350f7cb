package setup

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/matzehuels/babelone/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokOp
	tokNewline
	tokIndent
	tokDedent
)

// token is one lexical unit of Python source. pos and end are byte offsets
// into the source so callers can recover the raw text of a token range.
type token struct {
	kind tokenKind
	text string
	line int
	col  int
	pos  int
	end  int
}

func (t token) is(op string) bool { return t.kind == tokOp && t.text == op }

var operators = []string{
	"**=", "//=", ">>=", "<<=", "...",
	"->", ":=", "**", "//", "<<", ">>", "<=", ">=", "==", "!=",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"(", ")", "[", "]", "{", "}", ",", ":", ".", ";", "@", "=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "<", ">",
}

var closers = map[string]string{")": "(", "]": "[", "}": "{"}

// lexer splits Python source into tokens, producing logical NEWLINE,
// INDENT and DEDENT tokens the way the Python tokenizer does. Comments and
// blank lines are dropped.
type lexer struct {
	src       string
	pos       int
	line      int
	lineStart int
	indents   []int
	brackets  []token
	toks      []token
	lineBegin bool
}

// tokenize lexes src. Failures are UNSUPPORTED_SYNTAX errors carrying the
// line and column of the offending character.
func tokenize(src string) ([]token, error) {
	lx := &lexer{
		src:       strings.TrimPrefix(src, "\ufeff"),
		line:      1,
		indents:   []int{0},
		lineBegin: true,
	}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) col(pos int) int { return pos - lx.lineStart + 1 }

func (lx *lexer) errorf(line, col int, format string, args ...any) error {
	return errors.At(errors.New(errors.ErrCodeUnsupportedSyntax, format, args...), line, col)
}

func (lx *lexer) emit(kind tokenKind, start int) {
	lx.toks = append(lx.toks, token{
		kind: kind,
		text: lx.src[start:lx.pos],
		line: lx.line,
		col:  lx.col(start),
		pos:  start,
		end:  lx.pos,
	})
}

func (lx *lexer) run() error {
	for {
		if lx.lineBegin && len(lx.brackets) == 0 {
			if err := lx.indentation(); err != nil {
				return err
			}
		}
		if lx.pos >= len(lx.src) {
			return lx.finish()
		}

		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\f':
			lx.pos++
		case c == '\n':
			lx.newline()
		case c == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '\\':
			if lx.pos+1 >= len(lx.src) {
				return lx.errorf(lx.line, lx.col(lx.pos), "unexpected end of file after line continuation")
			}
			if lx.src[lx.pos+1] != '\n' {
				return lx.errorf(lx.line, lx.col(lx.pos), "unexpected character after line continuation")
			}
			lx.pos += 2
			lx.line++
			lx.lineStart = lx.pos
		case c == '"' || c == '\'':
			if err := lx.str(lx.pos); err != nil {
				return err
			}
		case isDigit(c) || (c == '.' && lx.pos+1 < len(lx.src) && isDigit(lx.src[lx.pos+1])):
			lx.number()
		default:
			r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
			if r == '_' || unicode.IsLetter(r) {
				if err := lx.name(); err != nil {
					return err
				}
				continue
			}
			if err := lx.operator(); err != nil {
				return err
			}
		}
	}
}

// indentation measures the leading whitespace of a physical line and emits
// INDENT or DEDENT tokens. Blank and comment-only lines do not count.
func (lx *lexer) indentation() error {
	lx.lineBegin = false
	width := 0
scan:
	for lx.pos < len(lx.src) {
		switch lx.src[lx.pos] {
		case ' ':
			width++
		case '\t':
			width = (width/8 + 1) * 8
		case '\f':
			width = 0
		default:
			break scan
		}
		lx.pos++
	}
	if lx.pos >= len(lx.src) || lx.src[lx.pos] == '\n' || lx.src[lx.pos] == '#' {
		return nil
	}

	top := lx.indents[len(lx.indents)-1]
	switch {
	case width > top:
		lx.indents = append(lx.indents, width)
		lx.emit(tokIndent, lx.pos)
	case width < top:
		for width < lx.indents[len(lx.indents)-1] {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.emit(tokDedent, lx.pos)
		}
		if width != lx.indents[len(lx.indents)-1] {
			return lx.errorf(lx.line, lx.col(lx.pos), "unindent does not match any outer indentation level")
		}
	}
	return nil
}

func (lx *lexer) newline() {
	if len(lx.brackets) == 0 && len(lx.toks) > 0 {
		switch lx.toks[len(lx.toks)-1].kind {
		case tokNewline, tokIndent, tokDedent:
		default:
			lx.emit(tokNewline, lx.pos)
		}
	}
	lx.pos++
	lx.line++
	lx.lineStart = lx.pos
	lx.lineBegin = true
}

func (lx *lexer) finish() error {
	if n := len(lx.brackets); n > 0 {
		open := lx.brackets[n-1]
		return lx.errorf(open.line, open.col, "'%s' was never closed", open.text)
	}
	if n := len(lx.toks); n > 0 && lx.toks[n-1].kind != tokNewline && lx.toks[n-1].kind != tokDedent {
		lx.emit(tokNewline, lx.pos)
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, lx.pos)
	}
	lx.emit(tokEOF, lx.pos)
	return nil
}

func (lx *lexer) name() error {
	start := lx.pos
	for lx.pos < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		lx.pos += size
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') && isStringPrefix(lx.src[start:lx.pos]) {
		return lx.str(start)
	}
	lx.emit(tokName, start)
	return nil
}

func isStringPrefix(s string) bool {
	switch strings.ToLower(s) {
	case "r", "u", "f", "b", "br", "rb", "fr", "rf":
		return true
	}
	return false
}

// str lexes a string literal whose prefix starts at start and whose opening
// quote is at lx.pos.
func (lx *lexer) str(start int) error {
	line, col := lx.line, lx.col(start)
	q := lx.src[lx.pos]
	delim := string(q)
	if strings.HasPrefix(lx.src[lx.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	lx.pos += len(delim)

	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == '\\':
			lx.pos++
			if lx.pos < len(lx.src) && lx.src[lx.pos] == '\n' {
				lx.line++
				lx.lineStart = lx.pos + 1
			}
			lx.pos++
		case strings.HasPrefix(lx.src[lx.pos:], delim):
			lx.pos += len(delim)
			lx.toks = append(lx.toks, token{
				kind: tokString,
				text: lx.src[start:lx.pos],
				line: line,
				col:  col,
				pos:  start,
				end:  lx.pos,
			})
			return nil
		case c == '\n':
			if len(delim) == 1 {
				return lx.errorf(line, col, "unterminated string literal")
			}
			lx.pos++
			lx.line++
			lx.lineStart = lx.pos
		default:
			lx.pos++
		}
	}
	if len(delim) == 3 {
		return lx.errorf(line, col, "unterminated triple-quoted string literal")
	}
	return lx.errorf(line, col, "unterminated string literal")
}

func (lx *lexer) number() {
	start := lx.pos
	hex := lx.pos+1 < len(lx.src) && lx.src[lx.pos] == '0' && lx.src[lx.pos+1]|0x20 == 'x'
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case isDigit(c) || isASCIILetter(c) || c == '_' || c == '.':
		case (c == '+' || c == '-') && !hex && (lx.src[lx.pos-1] == 'e' || lx.src[lx.pos-1] == 'E'):
		default:
			lx.emit(tokNumber, start)
			return
		}
		lx.pos++
	}
	lx.emit(tokNumber, start)
}

func (lx *lexer) operator() error {
	start := lx.pos
	for _, op := range operators {
		if !strings.HasPrefix(lx.src[lx.pos:], op) {
			continue
		}
		lx.pos += len(op)
		lx.emit(tokOp, start)
		tok := lx.toks[len(lx.toks)-1]

		switch op {
		case "(", "[", "{":
			lx.brackets = append(lx.brackets, tok)
		case ")", "]", "}":
			n := len(lx.brackets)
			if n == 0 {
				return lx.errorf(tok.line, tok.col, "unmatched '%s'", op)
			}
			if open := lx.brackets[n-1]; open.text != closers[op] {
				return lx.errorf(tok.line, tok.col, "closing '%s' does not match '%s' on line %d", op, open.text, open.line)
			}
			lx.brackets = lx.brackets[:n-1]
		}
		return nil
	}
	r, _ := utf8.DecodeRuneInString(lx.src[lx.pos:])
	return lx.errorf(lx.line, lx.col(lx.pos), "invalid character %q", r)
}

func isDigit(c byte) bool       { return c >= '0' && c <= '9' }
func isASCIILetter(c byte) bool { return (c|0x20) >= 'a' && (c|0x20) <= 'z' }
