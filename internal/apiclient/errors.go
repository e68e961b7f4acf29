package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-portal/internal/domain"
)

// User-facing messages per backend outcome. They are shown verbatim as toasts.
const (
	MsgNetwork            = "Network error. Please check your connection."
	MsgBadRequest         = "Bad request. Please check your input."
	MsgUnauthorized       = "Your session has expired. Please log in again."
	MsgForbidden          = "You do not have permission to perform this action."
	MsgNotFound           = "The requested resource was not found."
	MsgUnprocessable      = "Validation failed. Please check the submitted data."
	MsgServerError        = "Server error. Please try again later."
	MsgServiceUnavailable = "Service unavailable. Please try again later."
	MsgUnexpected         = "An unexpected error occurred."
)

type backendErrorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// mapStatus converts a non-2xx response into a DomainError. body may be empty.
func mapStatus(status int, body []byte) *domain.DomainError {
	var derr *domain.DomainError
	switch status {
	case http.StatusBadRequest:
		derr = domain.NewError(domain.CodeBadRequest, MsgBadRequest, nil)
	case http.StatusUnauthorized:
		derr = domain.NewError(domain.CodeUnauthorized, MsgUnauthorized, nil)
	case http.StatusForbidden:
		derr = domain.NewError(domain.CodeForbidden, MsgForbidden, nil)
	case http.StatusNotFound:
		derr = domain.NewError(domain.CodeNotFound, MsgNotFound, nil)
	case http.StatusUnprocessableEntity:
		derr = domain.NewError(domain.CodeUnprocessable, MsgUnprocessable, nil)
	case http.StatusInternalServerError:
		derr = domain.NewError(domain.CodeBackend, MsgServerError, nil)
	case http.StatusServiceUnavailable:
		derr = domain.NewError(domain.CodeServiceUnavailable, MsgServiceUnavailable, nil)
	default:
		derr = domain.NewError(domain.CodeBackend, MsgUnexpected, nil)
	}
	derr.WithContext("status", status)

	var parsed backendErrorBody
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			derr.WithContext("backend_message", parsed.Message)
		}
		if len(parsed.Errors) > 0 {
			derr.WithContext("fields", parsed.Errors)
		}
	}
	return derr
}

func networkError(cause error) *domain.DomainError {
	return domain.NewError(domain.CodeNetwork, MsgNetwork, cause)
}

// retryable reports whether a failed read may be attempted again.
func retryable(err *domain.DomainError) bool {
	if err.Code == domain.CodeNetwork {
		return true
	}
	status, _ := err.Context["status"].(int)
	return status >= 500
}

// StatusOf returns the backend HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var derr *domain.DomainError
	if !errors.As(err, &derr) || derr.Context == nil {
		return 0
	}
	status, _ := derr.Context["status"].(int)
	return status
}
