package backend

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse means the envelope parsed but carried no text
var ErrEmptyResponse = errors.New("empty response from completion API")

// APIError is returned when the service answered with a non-200 status.
type APIError struct {
	StatusCode int
	Message    string // server-provided message, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: status %d - %s", e.StatusCode, e.Message)
}

// TransportError is returned when no usable HTTP response was obtained.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
