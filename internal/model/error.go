package model

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON   = "INVALID_JSON"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUnauthorised  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeThrottled     = "THROTTLED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// StatusCode maps the error code to its HTTP status.
func (e *DomainError) StatusCode() int {
	switch e.Code {
	case ErrCodeInvalidJSON, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeThrottled:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidJSON        = NewDomainError(ErrCodeInvalidJSON, "Request body must be a JSON object")
	ErrProductNotFound    = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrInvalidPage        = NewDomainError(ErrCodeNotFound, "Invalid page.")
	ErrProductInUse       = NewDomainError(ErrCodeConflict, "Product is referenced by existing orders")
	ErrNotAuthenticated   = NewDomainError(ErrCodeUnauthorised, "Authentication credentials were not provided.")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthorised, "Invalid authentication credentials.")
	ErrPermissionDenied   = NewDomainError(ErrCodeForbidden, "You do not have permission to perform this action.")
	ErrThrottled          = NewDomainError(ErrCodeThrottled, "Request was throttled.")
)

// ValidationError collects field-level validation messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty validation error.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a message against a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
