// ABOUTME: Standard HTTP client implementation with per-request header, timeout and TLS overrides
// ABOUTME: Adapts net/http to the core HTTPClient interface

package standard

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"feedrelay-api/core/interfaces"
)

const defaultUserAgent = "FeedRelayAPI/1.0"

// StandardHTTPClient implements the HTTPClient interface using the standard
// library. A second client with certificate verification disabled serves
// the publishers that present misconfigured certificates; it is only used
// when a request explicitly asks for it.
type StandardHTTPClient struct {
	client   *http.Client
	insecure *http.Client
}

// NewStandardHTTPClient creates a new HTTP client with the specified
// default timeout.
func NewStandardHTTPClient(timeout time.Duration) *StandardHTTPClient {
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	return &StandardHTTPClient{
		client: &http.Client{Timeout: timeout},
		insecure: &http.Client{
			Timeout:   timeout,
			Transport: insecureTransport,
		},
	}
}

// Get performs an HTTP GET request with default options
func (c *StandardHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	return c.GetWithOptions(ctx, url, interfaces.RequestOptions{})
}

// GetWithOptions performs an HTTP GET request with per-request overrides.
// There is no retry inside a single request; the caller's fallback sequence
// is the retry policy.
func (c *StandardHTTPClient) GetWithOptions(ctx context.Context, url string, opts interfaces.RequestOptions) (interfaces.Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		// The response body must stay readable after this function
		// returns, so the deadline is released when the body is closed.
		return c.do(ctx, url, opts, cancel)
	}
	return c.do(ctx, url, opts, nil)
}

func (c *StandardHTTPClient) do(ctx context.Context, url string, opts interfaces.RequestOptions, cancel context.CancelFunc) (interfaces.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	client := c.client
	if opts.InsecureSkipVerify {
		client = c.insecure
	}

	resp, err := client.Do(req)
	if err != nil {
		if cancel != nil {
			cancel()
		}
		return nil, err
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       &cancellingBody{body: resp.Body, cancel: cancel},
		headers:    resp.Header,
	}, nil
}

// Post performs an HTTP POST request with a JSON body
func (c *StandardHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	return &httpResponse{
		statusCode: resp.StatusCode,
		body:       &cancellingBody{body: resp.Body},
		headers:    resp.Header,
	}, nil
}

// httpResponse implements the Response interface
type httpResponse struct {
	statusCode int
	body       io.ReadCloser
	headers    http.Header
}

// StatusCode returns the HTTP status code
func (r *httpResponse) StatusCode() int {
	return r.statusCode
}

// Body returns the response body
func (r *httpResponse) Body() io.ReadCloser {
	return r.body
}

// Header returns the value of the specified header
func (r *httpResponse) Header(key string) string {
	return r.headers.Get(key)
}

// cancellingBody releases a per-request deadline when the body is closed.
type cancellingBody struct {
	body   io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancellingBody) Read(p []byte) (int, error) {
	return b.body.Read(p)
}

func (b *cancellingBody) Close() error {
	err := b.body.Close()
	if b.cancel != nil {
		b.cancel()
	}
	return err
}
