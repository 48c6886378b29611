// Package blockerr defines the error taxonomy shared by every layer of the
// block-document engine.
//
// All errors are recoverable by the caller. A rejected mutation leaves the
// document and its history unchanged, so callers decide purely on Code how to
// surface the failure ("cannot drop here", "this field is invalid").
// CodeInvariantViolation is the one code that signals a prior bug (bad load or
// a bypassed command layer) and should be surfaced loudly.
package blockerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code categorizes engine errors.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeUnknownType        Code = "UNKNOWN_TYPE"
	CodeSchemaValidation   Code = "SCHEMA_VALIDATION"
	CodeNotAContainer      Code = "NOT_A_CONTAINER"
	CodeIndexOutOfRange    Code = "INDEX_OUT_OF_RANGE"
	CodeRootRemoval        Code = "ROOT_REMOVAL"
	CodeParentNotFound     Code = "PARENT_NOT_FOUND"
	CodeCycleRejected      Code = "CYCLE_REJECTED"
	CodeNothingToUndo      Code = "NOTHING_TO_UNDO"
	CodeNothingToRedo      Code = "NOTHING_TO_REDO"
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
)

// Codes lists every code in declaration order.
var Codes = []Code{
	CodeNotFound,
	CodeUnknownType,
	CodeSchemaValidation,
	CodeNotAContainer,
	CodeIndexOutOfRange,
	CodeRootRemoval,
	CodeParentNotFound,
	CodeCycleRejected,
	CodeNothingToUndo,
	CodeNothingToRedo,
	CodeInvariantViolation,
}

// ValidCode reports whether s names a known code.
func ValidCode(s string) bool {
	for _, c := range Codes {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Error is the single error type returned by the engine.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// BlockID identifies the affected block, if any.
	BlockID string

	// Details contains additional context (indexes, type names).
	Details map[string]string

	// Err is an optional underlying cause (e.g. a CUE validation error).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.BlockID != "" {
		fmt.Fprintf(&b, " (block=%s)", e.BlockID)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so the sentinels below work
// with errors.Is regardless of message or block.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// DetailKeys returns the detail keys in sorted order.
func (e *Error) DetailKeys() []string {
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sentinels for errors.Is.
var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrUnknownType        = &Error{Code: CodeUnknownType}
	ErrSchemaValidation   = &Error{Code: CodeSchemaValidation}
	ErrNotAContainer      = &Error{Code: CodeNotAContainer}
	ErrIndexOutOfRange    = &Error{Code: CodeIndexOutOfRange}
	ErrRootRemoval        = &Error{Code: CodeRootRemoval}
	ErrParentNotFound     = &Error{Code: CodeParentNotFound}
	ErrCycleRejected      = &Error{Code: CodeCycleRejected}
	ErrNothingToUndo      = &Error{Code: CodeNothingToUndo}
	ErrNothingToRedo      = &Error{Code: CodeNothingToRedo}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation}
)

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ForBlock creates an Error tied to a block id.
func ForBlock(code Code, blockID, format string, args ...any) *Error {
	return &Error{Code: code, BlockID: blockID, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error with an underlying cause.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// With returns a copy of e carrying an extra detail.
func (e *Error) With(key, value string) *Error {
	out := *e
	out.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		out.Details[k] = v
	}
	out.Details[key] = value
	return &out
}

// CodeOf extracts the code from err, or "" when err is not an engine error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Has reports whether err carries the given code.
func Has(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsInvariantViolation reports whether err signals a corrupted document.
func IsInvariantViolation(err error) bool {
	return Has(err, CodeInvariantViolation)
}
