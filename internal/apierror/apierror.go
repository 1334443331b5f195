// Package apierror defines the coded errors surfaced at the API boundary.
// Codes are stable so the widget and dashboard can branch on them.
package apierror

import (
	"errors"
	"fmt"
)

// Code identifies an error class at the boundary.
type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeBadRequest   Code = "BAD_REQUEST"
)

// Error is a structured, user-distinguishable error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unauthorized reports a missing, invalid or expired session or identity, or
// a tenant mismatch.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// NotFound reports an absent referenced entity.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// BadRequest reports an operation that is illegal for the current state.
func BadRequest(message string) *Error {
	return &Error{Code: CodeBadRequest, Message: message}
}

// As unwraps err to an *Error if one is in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	if e, ok := As(err); ok {
		return e.Code == code
	}
	return false
}
