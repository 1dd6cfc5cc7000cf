package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestInputError_Error(t *testing.T) {
	err := &InputError{Field: "url", Message: "url parameter is required"}

	msg := err.Error()

	if !strings.Contains(msg, "url") {
		t.Errorf("Error message should contain field name, got %s", msg)
	}
	if !strings.Contains(msg, "required") {
		t.Errorf("Error message should contain message, got %s", msg)
	}
}

func TestUpstreamError_Error_WithStatus(t *testing.T) {
	err := &UpstreamError{URL: "https://example.com/feed", StatusCode: 503, Message: "unavailable"}

	if !strings.Contains(err.Error(), "503") {
		t.Errorf("Error message should contain status code, got %s", err.Error())
	}
}

func TestUpstreamError_Error_WithoutStatus(t *testing.T) {
	err := &UpstreamError{URL: "https://example.com/feed", Message: "connection refused"}

	if strings.Contains(err.Error(), "0 -") {
		t.Errorf("Error message should omit zero status code, got %s", err.Error())
	}
}

func TestIsInput(t *testing.T) {
	err := &InputError{Field: "url", Message: "missing"}

	if !IsInput(err) {
		t.Error("IsInput should return true for InputError")
	}
	if IsInput(errors.New("plain error")) {
		t.Error("IsInput should return false for plain errors")
	}
}

func TestIsInput_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", &InputError{Field: "url", Message: "missing"})

	if !IsInput(err) {
		t.Error("IsInput should unwrap wrapped errors")
	}
}

func TestIsUpstream(t *testing.T) {
	err := &UpstreamError{URL: "https://example.com", StatusCode: 500}

	if !IsUpstream(err) {
		t.Error("IsUpstream should return true for UpstreamError")
	}
	if IsUpstream(&InputError{}) {
		t.Error("IsUpstream should return false for other error types")
	}
}

func TestIsParse(t *testing.T) {
	err := &ParseError{URL: "https://example.com/feed", Message: "not a feed"}

	if !IsParse(err) {
		t.Error("IsParse should return true for ParseError")
	}
}

func TestAsRetrievalFailure(t *testing.T) {
	inner := &RetrievalFailure{
		URL:        "https://example.com/feed",
		Tried:      []string{"direct", "bridge"},
		LastStatus: 403,
	}
	wrapped := fmt.Errorf("retrieve: %w", inner)

	failure, ok := AsRetrievalFailure(wrapped)
	if !ok {
		t.Fatal("AsRetrievalFailure should find wrapped RetrievalFailure")
	}
	if len(failure.Tried) != 2 {
		t.Errorf("Tried should have 2 entries, got %d", len(failure.Tried))
	}
	if failure.LastStatus != 403 {
		t.Errorf("LastStatus should be 403, got %d", failure.LastStatus)
	}
}

func TestAsRetrievalFailure_NotFailure(t *testing.T) {
	_, ok := AsRetrievalFailure(errors.New("something else"))

	if ok {
		t.Error("AsRetrievalFailure should return false for other errors")
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("base error")

	wrapped := WrapError(base, "context")

	if !errors.Is(wrapped, base) {
		t.Error("WrapError should preserve the error chain")
	}
	if WrapError(nil, "context") != nil {
		t.Error("WrapError should return nil for nil error")
	}
}
