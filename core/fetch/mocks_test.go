package fetch

import (
	"context"
	"io"
	"strings"

	"feedrelay-api/core/interfaces"
)

// mockHTTPClient implements interfaces.HTTPClient for tests
type mockHTTPClient struct {
	getFunc            func(ctx context.Context, url string) (interfaces.Response, error)
	getWithOptionsFunc func(ctx context.Context, url string, opts interfaces.RequestOptions) (interfaces.Response, error)
}

func (m *mockHTTPClient) Get(ctx context.Context, url string) (interfaces.Response, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, url)
	}
	return m.GetWithOptions(ctx, url, interfaces.RequestOptions{})
}

func (m *mockHTTPClient) GetWithOptions(ctx context.Context, url string, opts interfaces.RequestOptions) (interfaces.Response, error) {
	if m.getWithOptionsFunc != nil {
		return m.getWithOptionsFunc(ctx, url, opts)
	}
	return &mockResponse{statusCode: 200}, nil
}

func (m *mockHTTPClient) Post(ctx context.Context, url string, body io.Reader) (interfaces.Response, error) {
	return &mockResponse{statusCode: 200}, nil
}

// mockResponse implements interfaces.Response for tests
type mockResponse struct {
	statusCode int
	body       string
	headers    map[string]string
}

func (m *mockResponse) StatusCode() int { return m.statusCode }

func (m *mockResponse) Body() io.ReadCloser {
	return io.NopCloser(strings.NewReader(m.body))
}

func (m *mockResponse) Header(key string) string {
	if m.headers == nil {
		return ""
	}
	return m.headers[key]
}

// mockLogger implements interfaces.Logger and records messages
type mockLogger struct {
	warnings []string
}

func (l *mockLogger) Debug(msg string, fields map[string]interface{}) {}
func (l *mockLogger) Info(msg string, fields map[string]interface{})  {}
func (l *mockLogger) Warn(msg string, fields map[string]interface{})  { l.warnings = append(l.warnings, msg) }
func (l *mockLogger) Error(msg string, fields map[string]interface{}) {}
