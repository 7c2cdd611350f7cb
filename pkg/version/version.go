package version

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
)

// Segment is one dot-separated release component. Numeric segments have an
// empty Alpha and compare by Num; alphanumeric segments ("x", "2a") compare
// after every numeric segment and lexically among themselves.
type Segment struct {
	Num   int
	Alpha string
}

// String renders the segment.
func (s Segment) String() string {
	if s.Alpha != "" {
		return s.Alpha
	}
	return strconv.Itoa(s.Num)
}

func (s Segment) numeric() bool { return s.Alpha == "" }

// Pre-release kinds, normalized.
const (
	PreAlpha = "a"
	PreBeta  = "b"
	PreRC    = "rc"
)

// Version is a parsed version literal. Raw keeps the literal exactly as
// written so serializers can re-emit it unchanged.
type Version struct {
	Raw      string
	Release  []Segment
	Pre      string // "", PreAlpha, PreBeta or PreRC
	PreNum   int
	Post     int // -1 when absent
	Dev      int // -1 when absent
	Local    string
	Wildcard bool // trailing ".*", only valid with == and !=
}

// String returns the literal as written.
func (v Version) String() string { return v.Raw }

var pep440RE = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?$`)

var (
	segmentSplitRE = regexp.MustCompile(`[._-]`)
	alnumRE        = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Parse parses a version literal. Only ASCII letters, digits and the
// separators ".", "-", "_", "+" are accepted, plus a trailing ".*" wildcard.
func Parse(s string) (Version, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Version{}, errors.New(errors.ErrCodeMalformedConstraint, "empty version literal")
	}

	body := raw
	v := Version{Raw: raw, Post: -1, Dev: -1}
	if strings.HasSuffix(body, ".*") {
		v.Wildcard = true
		body = strings.TrimSuffix(body, ".*")
	}

	for _, r := range body {
		if !validRune(r) {
			return Version{}, errors.New(errors.ErrCodeMalformedConstraint,
				"invalid character %q in version %q", r, raw)
		}
	}

	lower := strings.ToLower(body)
	if i := strings.IndexByte(lower, '+'); i >= 0 {
		v.Local = lower[i+1:]
		lower = lower[:i]
		if v.Local == "" || strings.Contains(v.Local, "+") || v.Wildcard {
			return Version{}, errors.New(errors.ErrCodeMalformedConstraint, "invalid local version in %q", raw)
		}
	}
	if lower == "" {
		return Version{}, errors.New(errors.ErrCodeMalformedConstraint, "missing release segment in %q", raw)
	}

	if m := pep440RE.FindStringSubmatch(lower); m != nil {
		for _, part := range strings.Split(m[1], ".") {
			n, _ := strconv.Atoi(part)
			v.Release = append(v.Release, Segment{Num: n})
		}
		if m[2] != "" {
			v.Pre = normalizePre(m[2])
			v.PreNum = atoi(m[3])
		}
		switch {
		case m[4] != "":
			v.Post = atoi(m[4])
		case m[5] != "":
			v.Post = atoi(m[6])
		}
		if m[7] != "" {
			v.Dev = atoi(m[8])
		}
		return v, nil
	}

	// Loose literals such as "2.x" or "6.95.x".
	for _, part := range segmentSplitRE.Split(lower, -1) {
		if !alnumRE.MatchString(part) {
			return Version{}, errors.New(errors.ErrCodeMalformedConstraint, "malformed version %q", raw)
		}
		if n, err := strconv.Atoi(part); err == nil {
			v.Release = append(v.Release, Segment{Num: n})
		} else {
			v.Release = append(v.Release, Segment{Alpha: part})
		}
	}
	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func validRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '-', r == '_', r == '+':
		return true
	}
	return false
}

func normalizePre(s string) string {
	switch s {
	case "a", "alpha":
		return PreAlpha
	case "b", "beta":
		return PreBeta
	}
	return PreRC
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to,
// or after b. Release segments are compared numerically with zero padding,
// then development < pre-release < final < post-release, then local labels.
func Compare(a, b Version) int {
	if c := compareRelease(a.Release, b.Release); c != 0 {
		return c
	}
	if c := cmp.Compare(a.phase(), b.phase()); c != 0 {
		return c
	}
	if a.Pre != "" {
		if c := cmp.Compare(preRank(a.Pre), preRank(b.Pre)); c != 0 {
			return c
		}
		if c := cmp.Compare(a.PreNum, b.PreNum); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Post, b.Post); c != 0 {
		return c
	}
	if c := cmp.Compare(devKey(a), devKey(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.Local, b.Local)
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return Compare(v, o) < 0 }

// phase orders a bare development release below pre-releases, which sort
// below final and post releases.
func (v Version) phase() int {
	switch {
	case v.Pre == "" && v.Post < 0 && v.Dev >= 0:
		return 0
	case v.Pre != "":
		return 1
	}
	return 2
}

func preRank(p string) int {
	switch p {
	case PreAlpha:
		return 0
	case PreBeta:
		return 1
	}
	return 2
}

func devKey(v Version) int {
	if v.Dev < 0 {
		return int(^uint(0) >> 1)
	}
	return v.Dev
}

func compareRelease(a, b []Segment) int {
	n := max(len(a), len(b))
	for i := range n {
		sa, sb := segmentAt(a, i), segmentAt(b, i)
		if c := compareSegment(sa, sb); c != 0 {
			return c
		}
	}
	return 0
}

func segmentAt(s []Segment, i int) Segment {
	if i < len(s) {
		return s[i]
	}
	return Segment{}
}

func compareSegment(a, b Segment) int {
	switch {
	case a.numeric() && b.numeric():
		return cmp.Compare(a.Num, b.Num)
	case a.numeric():
		return -1
	case b.numeric():
		return 1
	}
	return strings.Compare(a.Alpha, b.Alpha)
}
