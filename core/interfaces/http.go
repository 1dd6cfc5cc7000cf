package interfaces

import (
	"context"
	"io"
	"time"
)

// RequestOptions carries per-request transport tuning. Several publishers
// reject default server-side fetch headers or present misconfigured
// certificates, so callers can override headers, the timeout, and TLS
// verification per request.
type RequestOptions struct {
	// Headers are set on the outgoing request, replacing any defaults
	// with the same name.
	Headers map[string]string

	// Timeout overrides the client default when greater than zero.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification for this
	// request.
	InsecureSkipVerify bool
}

// HTTPClient defines the interface for making HTTP requests.
// This abstraction allows for easy mocking in tests and switching between
// different HTTP client implementations.
type HTTPClient interface {
	// Get performs an HTTP GET request with default options.
	Get(ctx context.Context, url string) (Response, error)

	// GetWithOptions performs an HTTP GET request with per-request
	// header, timeout, and TLS overrides.
	GetWithOptions(ctx context.Context, url string, opts RequestOptions) (Response, error)

	// Post performs an HTTP POST request with a JSON body.
	Post(ctx context.Context, url string, body io.Reader) (Response, error)
}

// Response defines the interface for HTTP responses.
type Response interface {
	// StatusCode returns the HTTP status code of the response.
	StatusCode() int

	// Body returns the response body as an io.ReadCloser.
	// The caller is responsible for closing the body when done.
	Body() io.ReadCloser

	// Header returns the value of the specified header.
	// Returns an empty string if the header is not present.
	Header(key string) string
}
