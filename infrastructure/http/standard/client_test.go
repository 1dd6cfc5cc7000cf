package standard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedrelay-api/core/interfaces"
)

func TestGetWithOptions_SendsCustomHeaders(t *testing.T) {
	var gotAccept, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewStandardHTTPClient(5 * time.Second)

	resp, err := client.GetWithOptions(context.Background(), server.URL, interfaces.RequestOptions{
		Headers: map[string]string{
			"Accept":  "application/rss+xml",
			"Referer": "https://example.com/",
		},
	})
	if err != nil {
		t.Fatalf("GetWithOptions returned error: %v", err)
	}
	defer resp.Body().Close()

	if gotAccept != "application/rss+xml" {
		t.Errorf("Accept header not sent, got %q", gotAccept)
	}
	if gotReferer != "https://example.com/" {
		t.Errorf("Referer header not sent, got %q", gotReferer)
	}
}

func TestGetWithOptions_DefaultUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewStandardHTTPClient(5 * time.Second)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	resp.Body().Close()

	if gotUA != defaultUserAgent {
		t.Errorf("default User-Agent should be set, got %q", gotUA)
	}
}

func TestGetWithOptions_PerRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewStandardHTTPClient(5 * time.Second)

	_, err := client.GetWithOptions(context.Background(), server.URL, interfaces.RequestOptions{
		Timeout: 50 * time.Millisecond,
	})

	if err == nil {
		t.Error("request exceeding the per-request timeout should fail")
	}
}

func TestGetWithOptions_BodyReadableAfterReturn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := NewStandardHTTPClient(5 * time.Second)

	resp, err := client.GetWithOptions(context.Background(), server.URL, interfaces.RequestOptions{
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("GetWithOptions returned error: %v", err)
	}
	defer resp.Body().Close()

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		t.Fatalf("reading body failed: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("unexpected body %q", string(body))
	}
}

func TestGet_StatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := NewStandardHTTPClient(5 * time.Second)

	resp, err := client.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	resp.Body().Close()

	if resp.StatusCode() != http.StatusTeapot {
		t.Errorf("StatusCode should pass through, got %d", resp.StatusCode())
	}
}
