// Package errors provides the normalized error shape shared by every wizard component.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Error Kinds and Codes
// ==========================

// Kind is the closed classification components branch on.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNetwork        Kind = "network"
	KindTimeout        Kind = "timeout"
	KindServerRejected Kind = "server_rejected"
	KindUnknown        Kind = "unknown"
)

func (k Kind) String() string { return string(k) }

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeSectionMissing   ErrorCode = "SECTION_MISSING"

	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeUnprocessable ErrorCode = "UNPROCESSABLE"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeServerError   ErrorCode = "SERVER_ERROR"
	ErrCodeRequestFailed ErrorCode = "REQUEST_FAILED"

	ErrCodeNetworkFailure ErrorCode = "NETWORK_FAILURE"
	ErrCodeTimeout        ErrorCode = "TIMEOUT"
	ErrCodeParseFailure   ErrorCode = "PARSE_FAILURE"
	ErrCodeUnexpected     ErrorCode = "UNEXPECTED"

	ErrCodeGenerationRejected ErrorCode = "GENERATION_REJECTED"
)

// Default human-readable messages.
const (
	MsgBadRequest    = "Invalid request"
	MsgUnauthorized  = "You are not authorized. Please sign in."
	MsgForbidden     = "You do not have permission to perform this action."
	MsgNotFound      = "Requested resource was not found."
	MsgConflict      = "Request could not be completed due to a conflict."
	MsgUnprocessable = "Validation failed."
	MsgRateLimited   = "Too many requests. Please try again later."
	MsgServerError   = "A server error occurred. Please try again."
	MsgRequestFailed = "Request failed"
	MsgNetwork       = "Network error. Check your connection and try again."
	MsgParse         = "Received an unexpected response from the server."
	MsgTimeout       = "The request timed out. Please try again."
	MsgUnexpected    = "An unexpected error occurred."
)

// ==========================
// 2. AppError
// ==========================

// AppError is the single internal error shape. FieldErrors maps a field name
// to the message shown next to it.
type AppError struct {
	Kind        Kind              `json:"kind"`
	Code        ErrorCode         `json:"code"`
	Status      int               `json:"status,omitempty"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Retryable   bool              `json:"retryable"`
	Timestamp   time.Time         `json:"timestamp"`
	Err         error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches another *AppError by kind, and by code when the target sets one.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf classifies any error; errors outside the taxonomy are unknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindUnknown
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError creates a non-retryable field-level error.
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Kind:        KindValidation,
		Code:        ErrCodeValidationFailed,
		Message:     message,
		FieldErrors: fields,
		Retryable:   false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewSectionMissingError reports a wizard section that was never submitted.
func NewSectionMissingError(section string) *AppError {
	return &AppError{
		Kind:      KindValidation,
		Code:      ErrCodeSectionMissing,
		Message:   "Section is incomplete",
		Details:   section,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkError creates a retryable unreachable-collaborator error.
func NewNetworkError(err error) *AppError {
	return &AppError{
		Kind:      KindNetwork,
		Code:      ErrCodeNetworkFailure,
		Message:   MsgNetwork,
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewTimeoutError creates a retryable deadline error.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Kind:      KindTimeout,
		Code:      ErrCodeTimeout,
		Message:   MsgTimeout,
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// NewServerRejectedError creates an error for a reachable collaborator that
// refused the request.
func NewServerRejectedError(status int, code ErrorCode, message string, fields map[string]string) *AppError {
	return &AppError{
		Kind:        KindServerRejected,
		Code:        code,
		Status:      status,
		Message:     message,
		FieldErrors: fields,
		Retryable:   status == 429 || status >= 500,
		Timestamp:   time.Now().UTC(),
	}
}

// NewUnknownError wraps anything not classifiable above.
func NewUnknownError(err error) *AppError {
	return &AppError{
		Kind:      KindUnknown,
		Code:      ErrCodeUnexpected,
		Message:   MsgUnexpected,
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
