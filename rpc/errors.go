package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingServiceName is returned when Request is called without a target service.
	ErrMissingServiceName = errors.New("rpc: service name is required")
	// ErrInvalidMethod is returned for methods outside the supported set.
	ErrInvalidMethod = errors.New("rpc: invalid HTTP method")
	// ErrMissingPath is returned when the request config has no path.
	ErrMissingPath = errors.New("rpc: request path is required")
)

// HTTPError represents a non-2xx response from a peer service.
type HTTPError struct {
	Status     int
	StatusText string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Status, e.StatusText)
}

// ServiceError is the single terminal error the caller receives after the
// retry budget is exhausted. It names the target service and wraps the last
// underlying failure.
type ServiceError struct {
	Service  string
	Attempts int
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("request to %s service failed after %d attempt(s): %v", e.Service, e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
