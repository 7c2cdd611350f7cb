// Package version parses Python dependency version specifiers.
//
// A specifier is the part of a requirement that follows the distribution
// name, for example ">=2.0,<3" in "requests>=2.0,<3". It is a comma-separated
// list of clauses, each an [Operator] immediately followed by a version
// literal. Clauses are AND-combined.
//
// # Version literals
//
// [Parse] splits a literal into release segments plus optional pre-release,
// post-release, development and local parts, following PEP 440 where the
// literal conforms and falling back to plain alphanumeric segments ("2.x")
// where it does not. [Compare] orders versions segment-wise and numerically,
// so "1.10" sorts after "1.9".
//
// # Compatible release
//
// "~=" is kept as its own operator ([OpCompatible]) rather than expanded, so
// every serializer re-emits it verbatim. [Constraint.Expand] produces the
// equivalent ">=X.Y, ==X.*" pair for callers that need it.
//
// # Errors
//
// Every failure is an *errors.Error with code MALFORMED_CONSTRAINT.
package version
