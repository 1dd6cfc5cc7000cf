// ABOUTME: Custom error types for the core business logic
// ABOUTME: Provides the error taxonomy that maps to HTTP statuses at the boundary

package errors

import (
	"errors"
	"fmt"
	"strings"
)

// InputError represents a missing or malformed request input. Terminal,
// never retried; maps to 400 at the boundary.
type InputError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input '%s': %s", e.Field, e.Message)
}

// UpstreamError represents a failed call to an external service: non-2xx,
// timeout, TLS failure, or unrecognized content. Inside the orchestrator it
// triggers fallback to the next strategy.
type UpstreamError struct {
	URL        string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error from %s: %d - %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error from %s: %s", e.URL, e.Message)
}

// ParseError represents a feed body that was structurally unrecognizable
// despite a 2xx response. Counted as the producing strategy's failure.
type ParseError struct {
	URL     string
	Message string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %s", e.URL, e.Message)
}

// RetrievalFailure is returned once every configured strategy has been
// exhausted. Maps to 404 at the boundary.
type RetrievalFailure struct {
	URL        string
	Tried      []string
	LastStatus int
}

// Error implements the error interface
func (e *RetrievalFailure) Error() string {
	return fmt.Sprintf("all strategies failed for %s (tried: %s)", e.URL, strings.Join(e.Tried, ", "))
}

// IsInput checks if an error is an InputError
func IsInput(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}

// IsUpstream checks if an error is an UpstreamError
func IsUpstream(err error) bool {
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr)
}

// IsParse checks if an error is a ParseError
func IsParse(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// AsRetrievalFailure extracts a RetrievalFailure from an error chain.
func AsRetrievalFailure(err error) (*RetrievalFailure, bool) {
	var failure *RetrievalFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
