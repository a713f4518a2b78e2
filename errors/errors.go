// Package errors provides error handling for lumos.
//
// It re-exports github.com/cockroachdb/errors and defines the sentinel errors that
// classify every compilation failure. A failure from any pipeline stage is marked
// with exactly one sentinel, so callers can branch on it:
//
//	schema, err := lumos.Compile(src)
//	if errors.Is(err, errors.ErrTypeValidation) {
//	    // an undefined type was referenced
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint     = crdb.WithHint
	WithHintf    = crdb.WithHintf
	WithDetail   = crdb.WithDetail
	WithDetailf  = crdb.WithDetailf
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Mark      = crdb.Mark
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinels for the failure taxonomy of the compiler.
var (
	// ErrSyntax indicates malformed declaration source.
	ErrSyntax = New("syntax error")

	// ErrStructure indicates a well-formed but structurally invalid declaration,
	// such as an enum without variants or a duplicated name.
	ErrStructure = New("structural error")

	// ErrTypeValidation indicates a reference to a type that is never declared.
	ErrTypeValidation = New("type validation error")

	// ErrNoDeclarations indicates that a source file contains no struct or enum.
	ErrNoDeclarations = New("no type definitions found")

	// ErrCodeGen indicates that generated output could not be produced or checked.
	ErrCodeGen = New("code generation error")
)

// Syntaxf creates an error marked with ErrSyntax.
func Syntaxf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrSyntax)
}

// Structuref creates an error marked with ErrStructure.
func Structuref(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrStructure)
}

// TypeValidationf creates an error marked with ErrTypeValidation.
func TypeValidationf(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrTypeValidation)
}

// IsSyntaxError reports whether err is, or wraps, a syntax error.
func IsSyntaxError(err error) bool {
	return err != nil && Is(err, ErrSyntax)
}

// IsTypeValidationError reports whether err is, or wraps, a type validation error.
func IsTypeValidationError(err error) bool {
	return err != nil && Is(err, ErrTypeValidation)
}

// IsNoDeclarations reports whether err signals an input with nothing to compile.
func IsNoDeclarations(err error) bool {
	return err != nil && Is(err, ErrNoDeclarations)
}
