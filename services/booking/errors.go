package booking

import (
	"errors"
	"fmt"
)

// Error codes returned to callers.
const (
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeInvalidInput      = "invalid_input"
	CodeInsufficientFunds = "insufficient_funds"
	CodeUpstreamFailure   = "upstream_failure"
	CodeUnauthorized      = "unauthorized"
)

// Error is a booking engine failure with a machine-readable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return NewError(CodeNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return NewError(CodeConflict, format, args...)
}

func InvalidInput(format string, args ...interface{}) error {
	return NewError(CodeInvalidInput, format, args...)
}

func InsufficientFunds(format string, args ...interface{}) error {
	return NewError(CodeInsufficientFunds, format, args...)
}

func Upstream(format string, args ...interface{}) error {
	return NewError(CodeUpstreamFailure, format, args...)
}

// CodeOf extracts the engine code from err, defaulting to upstream_failure
// for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUpstreamFailure
}
