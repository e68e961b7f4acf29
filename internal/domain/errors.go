package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Backend errors, one per status the portal distinguishes
	CodeNetwork            ErrorCode = "NETWORK_ERROR"
	CodeBadRequest         ErrorCode = "BAD_REQUEST"
	CodeUnprocessable      ErrorCode = "UNPROCESSABLE_ENTITY"
	CodeBackend            ErrorCode = "BACKEND_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInvalidResponse    ErrorCode = "INVALID_RESPONSE"

	// Portal specific errors
	CodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
	CodeUploadAborted   ErrorCode = "UPLOAD_ABORTED"
	CodeUnsupportedFile ErrorCode = "UNSUPPORTED_FILE"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithContext attaches a detail that is returned to the client.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Context,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons; only the code is compared.
var (
	ErrNotFound       = &DomainError{Code: CodeNotFound}
	ErrUnauthorized   = &DomainError{Code: CodeUnauthorized}
	ErrForbidden      = &DomainError{Code: CodeForbidden}
	ErrSessionExpired = &DomainError{Code: CodeSessionExpired}
	ErrUploadAborted  = &DomainError{Code: CodeUploadAborted}
)

// Helper functions for common errors
func NewNotFoundError(message string) *DomainError {
	return NewError(CodeNotFound, message, nil)
}

func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewUnauthorizedError(message string) *DomainError {
	return NewError(CodeUnauthorized, message, nil)
}

func NewForbiddenError(message string) *DomainError {
	return NewError(CodeForbidden, message, nil)
}

func NewSessionExpiredError() *DomainError {
	return NewError(CodeSessionExpired, "Your session has expired. Please log in again.", nil)
}

func NewUploadAbortedError(uploadID string, cause error) *DomainError {
	return NewError(CodeUploadAborted, fmt.Sprintf("Upload %s was aborted", uploadID), cause)
}

func NewUnsupportedFileError(name string, allowed ...string) *DomainError {
	return NewError(CodeUnsupportedFile,
		fmt.Sprintf("File %q is not supported (allowed: %s)", name, strings.Join(allowed, ", ")), nil)
}

func NewInvalidResponseError(resource string, err error) *DomainError {
	return NewError(CodeInvalidResponse, fmt.Sprintf("Unexpected response from backend for %s", resource), err)
}

func NewValidationError(message string) *DomainError {
	return NewError(CodeValidation, message, nil)
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string      `json:"field"`
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors is returned when one or more fields fail validation.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the first error for field, if any.
func (v ValidationErrors) Field(field string) (ValidationError, bool) {
	for _, e := range v {
		if e.Field == field {
			return e, true
		}
	}
	return ValidationError{}, false
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Code: CodeMissingField, Message: "this field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Code: CodeInvalidFormat, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("must be between %d and %d", min, max),
		Value:   value,
	}
}
