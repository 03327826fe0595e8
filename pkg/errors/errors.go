// Package errors provides structured error types for phylogram.
//
// Every failure the tool reports to a user carries a machine-readable [Code]
// so that the CLI, the HTTP server and the terminal UI can decide how to
// present it:
//   - INPUT_NOT_FOUND: a tree or mapping file could not be fetched; rendering aborts
//   - MALFORMED_TREE: Newick syntax error or a structural violation; rendering aborts
//   - METADATA_PARSE: the mapping file has no usable header; the tree renders uncolored
//   - UNKNOWN_COLOR_COLUMN: a color column is absent; treated as "no color"
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidOption, "leaf radius out of range: %v", r)
//	if errors.Is(err, errors.ErrCodeInvalidOption) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInputNotFound, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInputNotFound      Code = "INPUT_NOT_FOUND"
	ErrCodeMalformedTree      Code = "MALFORMED_TREE"
	ErrCodeMetadataParse      Code = "METADATA_PARSE"
	ErrCodeUnknownColorColumn Code = "UNKNOWN_COLOR_COLUMN"

	// Validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidTreeType Code = "INVALID_TREE_TYPE"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidOption   Code = "INVALID_OPTION"
	ErrCodeInvalidPath     Code = "INVALID_PATH"

	// Session errors
	ErrCodeSessionNotFound Code = "SESSION_NOT_FOUND"
	ErrCodeStaleLoad       Code = "STALE_LOAD"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Output errors
	ErrCodeRender Code = "RENDER_ERROR"
	ErrCodeCache  Code = "CACHE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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

// InputNotFound reports that the named tree or mapping source could not be read.
func InputNotFound(source string, cause error) *Error {
	return Wrap(ErrCodeInputNotFound, cause, "cannot load %s", source)
}

// MalformedTree reports a Newick syntax error or a structural violation.
func MalformedTree(format string, args ...any) *Error {
	return New(ErrCodeMalformedTree, format, args...)
}

// MetadataParse reports a mapping file that cannot be used for coloring.
func MetadataParse(format string, args ...any) *Error {
	return New(ErrCodeMetadataParse, format, args...)
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

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// Fatal reports whether err must abort a render pass. Metadata and color
// column problems degrade to an uncolored tree instead.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	switch GetCode(err) {
	case ErrCodeMetadataParse, ErrCodeUnknownColorColumn:
		return false
	}
	return true
}
