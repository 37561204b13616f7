package generation

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by TransportError.
var (
	ErrEmptyResponse    = errors.New("empty response body")
	ErrResponseTooLarge = errors.New("response body exceeds maximum size")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// ServiceError is a structured failure reported by the generation service.
// Message is the service's error text, unmodified.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error (%d): %s", e.StatusCode, e.Message)
}

// TransportError covers connection failures, cancelled requests, and
// responses the client could not interpret. StatusCode is zero when no
// response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation %s (%d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
