// Package diag defines the single failure channel shared by the validator
// and the executor: a human-readable message optionally tagged with the
// source line it originated from.
package diag

import (
	"errors"
	"fmt"
)

var (
	ErrStructure      = errors.New("structural error")
	ErrSyntax         = errors.New("syntax error")
	ErrValue          = errors.New("value error")
	ErrRecursionLimit = errors.New("recursion limit exceeded")
)

// Kind classifies a diagnostic.
type Kind uint8

const (
	KindStructure Kind = iota
	KindSyntax
	KindValue
	KindRecursionLimit
)

func (k Kind) String() string {
	switch k {
	case KindStructure:
		return "structure"
	case KindSyntax:
		return "syntax"
	case KindValue:
		return "value"
	case KindRecursionLimit:
		return "recursion_limit"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStructure:
		return ErrStructure
	case KindSyntax:
		return ErrSyntax
	case KindValue:
		return ErrValue
	default:
		return ErrRecursionLimit
	}
}

// Error is a diagnostic. Line is 0 when no source line is known.
type Error struct {
	Kind Kind
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("Line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Unwrap lets callers test the class with errors.Is(err, diag.ErrSyntax).
func (e *Error) Unwrap() error { return e.Kind.sentinel() }

// Errorf builds a line-tagged diagnostic.
func Errorf(kind Kind, line int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// WithLine tags err with line unless it already carries one. Errors that are
// not diagnostics are wrapped as syntax errors so they gain a line too.
func WithLine(err error, line int) error {
	if err == nil || line <= 0 {
		return err
	}
	var d *Error
	if !errors.As(err, &d) {
		return &Error{Kind: KindSyntax, Line: line, Msg: err.Error()}
	}
	if d.Line > 0 {
		return err
	}
	tagged := *d
	tagged.Line = line
	return &tagged
}

// LineOf reports the line a diagnostic is tagged with, or 0.
func LineOf(err error) int {
	var d *Error
	if errors.As(err, &d) {
		return d.Line
	}
	return 0
}
