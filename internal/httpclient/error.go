package httpclient

import (
	goerrors "errors"
	"fmt"

	ierr "github.com/keygate/keygate/internal/errors"
)

// Error represents a non-2xx response from an upstream service. It carries
// the raw status and body so callers can decide whether the failure is
// retryable.
type Error struct {
	*ierr.InternalError
	StatusCode int
	Response   []byte
}

func (e *Error) Unwrap() error {
	return e.InternalError.Unwrap()
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: upstream returned %d", e.InternalError.Error(), e.StatusCode)
}

// NewError creates a new HTTP client error from an upstream status and body
func NewError(statusCode int, response []byte) *Error {
	return &Error{
		InternalError: ierr.New(ierr.ErrCodeHTTPClient, "http client error"),
		StatusCode:    statusCode,
		Response:      response,
	}
}

// IsHTTPError checks if an error is an HTTP client error
func IsHTTPError(err error) (*Error, bool) {
	var httpErr *Error
	if goerrors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
