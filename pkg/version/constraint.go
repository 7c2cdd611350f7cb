package version

import (
	"strings"

	"github.com/matzehuels/babelone/pkg/errors"
)

// Operator is a version comparison operator.
type Operator string

// Recognized operators.
const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpCompatible   Operator = "~="
)

// operators is ordered so two-character tokens match before their
// one-character prefixes.
var operators = []Operator{OpCompatible, OpEqual, OpNotEqual, OpGreaterEqual, OpLessEqual, OpGreater, OpLess}

// Constraint is a single operator/version clause.
type Constraint struct {
	Op      Operator
	Version Version
}

// String renders the clause without whitespace, e.g. ">=2.0".
func (c Constraint) String() string {
	return string(c.Op) + c.Version.String()
}

// Expand returns the clauses equivalent to c. Compatible-release "~=X.Y.Z"
// becomes ">=X.Y.Z" and "==X.Y.*"; every other operator returns c alone.
func (c Constraint) Expand() []Constraint {
	if c.Op != OpCompatible {
		return []Constraint{c}
	}
	prefix := c.Version.Release[:len(c.Version.Release)-1]
	parts := make([]string, len(prefix))
	for i, s := range prefix {
		parts[i] = s.String()
	}
	wild := MustParse(strings.Join(parts, ".") + ".*")
	return []Constraint{
		{Op: OpGreaterEqual, Version: c.Version},
		{Op: OpEqual, Version: wild},
	}
}

// Allows reports whether v satisfies the clause.
func (c Constraint) Allows(v Version) bool {
	switch c.Op {
	case OpEqual:
		if c.Version.Wildcard {
			return hasPrefix(v.Release, c.Version.Release)
		}
		return Compare(v, c.Version) == 0
	case OpNotEqual:
		if c.Version.Wildcard {
			return !hasPrefix(v.Release, c.Version.Release)
		}
		return Compare(v, c.Version) != 0
	case OpGreater:
		return Compare(v, c.Version) > 0
	case OpGreaterEqual:
		return Compare(v, c.Version) >= 0
	case OpLess:
		return Compare(v, c.Version) < 0
	case OpLessEqual:
		return Compare(v, c.Version) <= 0
	case OpCompatible:
		for _, e := range c.Expand() {
			if !e.Allows(v) {
				return false
			}
		}
		return true
	}
	return false
}

func hasPrefix(release, prefix []Segment) bool {
	for i, s := range prefix {
		if compareSegment(segmentAt(release, i), s) != 0 {
			return false
		}
	}
	return true
}

// ParseConstraint parses a single clause such as ">=1.2" or "~= 2.0".
// Whitespace between the operator and the literal is tolerated.
func ParseConstraint(s string) (Constraint, error) {
	clause := strings.TrimSpace(s)
	if clause == "" {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint, "empty clause")
	}
	if strings.HasPrefix(clause, "===") {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint,
			"arbitrary equality %q is not supported", clause)
	}

	var op Operator
	for _, candidate := range operators {
		if strings.HasPrefix(clause, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint,
			"unrecognized operator in %q", clause)
	}

	literal := strings.TrimSpace(clause[len(op):])
	if literal == "" {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint, "missing version after %q", op)
	}
	if strings.ContainsAny(literal, "<>=!~") {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint,
			"unrecognized operator in %q", clause)
	}

	v, err := Parse(literal)
	if err != nil {
		return Constraint{}, err
	}
	if v.Wildcard && op != OpEqual && op != OpNotEqual {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint,
			"wildcard version only allowed with == and !=: %q", clause)
	}
	if op == OpCompatible && len(v.Release) < 2 {
		return Constraint{}, errors.New(errors.ErrCodeMalformedConstraint,
			"compatible release needs at least two segments: %q", clause)
	}
	return Constraint{Op: op, Version: v}, nil
}

// ParseSpecifier parses a comma-separated clause list. An empty or
// all-whitespace input means "unconstrained" and yields no clauses; input
// that is non-empty but has no clauses (",", " , ") is malformed.
func ParseSpecifier(s string) (Specifier, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var spec Specifier
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			return nil, errors.New(errors.ErrCodeMalformedConstraint, "empty clause in %q", strings.TrimSpace(s))
		}
		c, err := ParseConstraint(part)
		if err != nil {
			return nil, err
		}
		spec = append(spec, c)
	}

	if err := spec.check(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Specifier is an AND-combined clause list.
type Specifier []Constraint

// String joins the clauses with "," and no spaces.
func (s Specifier) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// check rejects exact clauses no single version can satisfy together,
// such as "==1.0,==2.0" or "==1.5.*,==1.6".
func (s Specifier) check() error {
	var pin *Constraint
	for i := range s {
		if c := &s[i]; c.Op == OpEqual && !c.Version.Wildcard {
			pin = c
			break
		}
	}
	if pin == nil {
		return nil
	}
	for _, c := range s {
		if c.Op == OpEqual && !c.Allows(pin.Version) {
			return errors.New(errors.ErrCodeMalformedConstraint,
				"contradictory pins %s and %s", pin, c)
		}
	}
	return nil
}
