// Package apperr defines the flat, HTTP-status-coded error taxonomy shared by
// services and the Fiber error handler.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeQRMismatch       Code = "QR_MISMATCH"
	CodeNoHintCredits    Code = "NO_HINT_CREDITS"
	CodeGameNotCompleted Code = "GAME_NOT_COMPLETED"
	CodeUnauthorized     Code = "UNAUTHORIZED"
	CodeForbidden        Code = "FORBIDDEN"
	CodeNotFound         Code = "NOT_FOUND"
	CodeOTPNotFound      Code = "OTP_NOT_FOUND"
	CodeSessionNotActive Code = "SESSION_NOT_ACTIVE"
	CodeOTPExpired       Code = "OTP_EXPIRED"
	CodeOTPInvalid       Code = "OTP_INVALID"
	CodeTooManyAttempts  Code = "TOO_MANY_ATTEMPTS"
	CodeCooldown         Code = "COOLDOWN"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeUnavailable      Code = "UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)

var statusByCode = map[Code]int{
	CodeValidation:       http.StatusBadRequest,
	CodeQRMismatch:       http.StatusBadRequest,
	CodeNoHintCredits:    http.StatusBadRequest,
	CodeGameNotCompleted: http.StatusConflict,
	CodeUnauthorized:     http.StatusUnauthorized,
	CodeForbidden:        http.StatusForbidden,
	CodeNotFound:         http.StatusNotFound,
	CodeOTPNotFound:      http.StatusNotFound,
	CodeSessionNotActive: http.StatusConflict,
	CodeOTPExpired:       http.StatusGone,
	CodeOTPInvalid:       http.StatusBadRequest,
	CodeTooManyAttempts:  http.StatusTooManyRequests,
	CodeCooldown:         http.StatusTooManyRequests,
	CodeRateLimited:      http.StatusTooManyRequests,
	CodeUnavailable:      http.StatusServiceUnavailable,
	CodeInternal:         http.StatusInternalServerError,
}

// Status returns the HTTP status for the code.
func (c Code) Status() int {
	if s, ok := statusByCode[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is an application error carrying its code, a client-safe message and
// optional metadata rendered next to the message in responses.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]any
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Status returns the HTTP status for the error's code.
func (e *Error) Status() int {
	return e.Code.Status()
}

// With returns a copy of e with key set in its metadata.
func (e *Error) With(key string, value any) *Error {
	md := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		md[k] = v
	}
	md[key] = value
	return &Error{Code: e.Code, Message: e.Message, Metadata: md, Cause: e.Cause}
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Validation(message string) *Error { return New(CodeValidation, message) }

func NotFound(message string) *Error { return New(CodeNotFound, message) }

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

func Internal(message string, cause error) *Error { return Wrap(CodeInternal, message, cause) }

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
