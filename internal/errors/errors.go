package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Sentinel errors used across the application. Every error returned from a
// service is marked with exactly one of these so transport layers can map it
// to a status code without inspecting provider-specific failures.
var (
	ErrNotFound         = New(ErrCodeNotFound, "resource not found")
	ErrValidation       = New(ErrCodeValidation, "validation error")
	ErrInvalidOperation = New(ErrCodeInvalidOperation, "invalid operation")
	ErrProvider         = New(ErrCodeProvider, "payment provider error")
	ErrHTTPClient       = New(ErrCodeHTTPClient, "http client error")
	ErrSystem           = New(ErrCodeSystemError, "system error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrNotFound:         http.StatusNotFound,
		ErrValidation:       http.StatusBadRequest,
		ErrInvalidOperation: http.StatusBadRequest,
		ErrProvider:         http.StatusInternalServerError,
		ErrHTTPClient:       http.StatusInternalServerError,
		ErrSystem:           http.StatusInternalServerError,
	}
)

const (
	ErrCodeNotFound         = "not_found"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeProvider         = "provider_error"
	ErrCodeHTTPClient       = "http_client_error"
	ErrCodeSystemError      = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

// New creates a new InternalError with the given code and message
func New(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidOperation checks if an error is an invalid operation error
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsProvider checks if an error is a payment provider error
func IsProvider(err error) bool {
	return errors.Is(err, ErrProvider)
}

// IsHTTPClient checks if an error is an http client error
func IsHTTPClient(err error) bool {
	return errors.Is(err, ErrHTTPClient)
}

func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}
