// Package errors provides structured error types for babelone.
//
// Every failure the translation core can produce carries a machine-readable
// [Code] so callers (the CLI, embedding programs) can branch on the kind of
// failure without matching message text:
//
//   - MALFORMED_CONSTRAINT: a version specifier could not be parsed
//   - UNSUPPORTED_SYNTAX: a build script has no recognizable setup call or
//     cannot be tokenized
//   - MALFORMED_DOCUMENT: a manifest is structurally invalid
//   - UNKNOWN_FORMAT: a format kind outside the supported set
//   - DUPLICATE_DEPENDENCY: one group names the same distribution twice
//
// Parse errors carry the originating [Position] when it is known.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMalformedConstraint, "unknown operator %q", op)
//	if errors.Is(err, errors.ErrCodeMalformedConstraint) {
//	    // Handle bad specifier
//	}
//
//	// Attach a source position
//	err = errors.At(err, 12, 4)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Parse errors
	ErrCodeMalformedConstraint Code = "MALFORMED_CONSTRAINT"
	ErrCodeUnsupportedSyntax   Code = "UNSUPPORTED_SYNTAX"
	ErrCodeMalformedDocument   Code = "MALFORMED_DOCUMENT"
	ErrCodeDuplicateDependency Code = "DUPLICATE_DEPENDENCY"

	// Dispatch errors
	ErrCodeUnknownFormat Code = "UNKNOWN_FORMAT"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Position locates an error in the source text. Line and Column are 1-based;
// zero means unknown.
type Position struct {
	Line   int
	Column int
}

// Known reports whether the position carries a line number.
func (p Position) Known() bool { return p.Line > 0 }

// String formats the position as "line:col" or "line N".
func (p Position) String() string {
	switch {
	case p.Line > 0 && p.Column > 0:
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	case p.Line > 0:
		return fmt.Sprintf("line %d", p.Line)
	}
	return ""
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code     Code     // Machine-readable error code
	Message  string   // Human-readable message
	Position Position // Source position (optional)
	Cause    error    // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Position.Known() {
		msg = e.Position.String() + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// At returns err with its position set to line:col. Errors that are not
// an *Error are wrapped as ErrCodeInternal. An existing known position is
// kept, since the innermost parser knows the location best.
func At(err error, line, col int) error {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return &Error{Code: ErrCodeInternal, Message: err.Error(), Position: Position{line, col}}
	}
	if e.Position.Known() {
		return err
	}
	cp := *e
	cp.Position = Position{Line: line, Column: col}
	return &cp
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetPosition returns the first known source position along the chain of
// *Error causes, or the zero Position.
func GetPosition(err error) Position {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Position.Known() {
			return e.Position
		}
		err = e.Cause
	}
	return Position{}
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (prefixed with its position when
// known) without the code prefix, followed by the user message of its
// cause. For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := e.Message
	if e.Position.Known() {
		msg = e.Position.String() + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + UserMessage(e.Cause)
	}
	return msg
}
