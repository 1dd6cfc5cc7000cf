// ABOUTME: Retrieval strategies tried in fallback order by the orchestrator
// ABOUTME: Direct fetch with domain-tuned headers, feed-extraction bridges, aggregator services

package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/interfaces"
)

// Strategy is one concrete retrieval method. Fetch returns a RawFeed when
// the response is recognizable feed data and an UpstreamError otherwise.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, feedURL string) (*domain.RawFeed, error)
}

const (
	// StrategyDirect names the direct-fetch strategy.
	StrategyDirect = "direct"

	// StrategyBridge names the feed-extraction bridge strategy.
	StrategyBridge = "bridge"
)

// DirectStrategy fetches the feed URL itself with a domain-aware header
// profile.
type DirectStrategy struct {
	client      interfaces.HTTPClient
	headers     *HeaderTable
	timeout     time.Duration
	insecureTLS bool
}

// NewDirectStrategy creates the direct fetch strategy.
func NewDirectStrategy(client interfaces.HTTPClient, headers *HeaderTable, timeout time.Duration, insecureTLS bool) *DirectStrategy {
	if headers == nil {
		headers = NewHeaderTable()
	}
	return &DirectStrategy{
		client:      client,
		headers:     headers,
		timeout:     timeout,
		insecureTLS: insecureTLS,
	}
}

// Name returns the strategy name
func (s *DirectStrategy) Name() string { return StrategyDirect }

// Fetch retrieves the feed URL directly. A feedburner-hosted URL rejected
// with 403 is retried once against the original feed URL embedded in its
// query string before the strategy gives up.
func (s *DirectStrategy) Fetch(ctx context.Context, feedURL string) (*domain.RawFeed, error) {
	raw, err := s.fetchOnce(ctx, feedURL)
	if err == nil {
		return raw, nil
	}

	var upstreamErr *coreerrors.UpstreamError
	if isFeedburnerHost(feedURL) && errors.As(err, &upstreamErr) && upstreamErr.StatusCode == 403 {
		if embedded := embeddedFeedURL(feedURL); embedded != "" {
			return s.fetchOnce(ctx, embedded)
		}
	}

	return nil, err
}

func (s *DirectStrategy) fetchOnce(ctx context.Context, feedURL string) (*domain.RawFeed, error) {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: feedURL, Message: "unparseable URL"}
	}

	resp, err := s.client.GetWithOptions(ctx, feedURL, interfaces.RequestOptions{
		Headers:            s.headers.For(parsed.Hostname()),
		Timeout:            s.timeout,
		InsecureSkipVerify: s.insecureTLS,
	})
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: feedURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &coreerrors.UpstreamError{URL: feedURL, StatusCode: resp.StatusCode(), Message: "non-2xx response"}
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: feedURL, Message: err.Error()}
	}

	if !looksLikeFeed(body) {
		return nil, &coreerrors.UpstreamError{URL: feedURL, StatusCode: resp.StatusCode(), Message: "response is not recognizable feed data"}
	}

	return &domain.RawFeed{Format: domain.FormatUnknown, Body: body, Strategy: s.Name()}, nil
}

// BridgeConfig maps a publisher domain to the bridge endpoint that can
// extract its feed. URL is a template with one %s placeholder for the
// escaped target URL.
type BridgeConfig struct {
	Match string
	URL   string
}

// BridgeStrategy asks a third-party feed-extraction bridge to fetch and
// transform the target on our behalf. Bridges get a longer timeout than
// direct fetches because they perform their own fetch+transform.
type BridgeStrategy struct {
	client  interfaces.HTTPClient
	table   []BridgeConfig
	generic string
	timeout time.Duration
}

// NewBridgeStrategy creates a bridge strategy. generic is the template used
// for domains without a dedicated bridge config; empty disables the
// fallback.
func NewBridgeStrategy(client interfaces.HTTPClient, table []BridgeConfig, generic string, timeout time.Duration) *BridgeStrategy {
	return &BridgeStrategy{
		client:  client,
		table:   table,
		generic: generic,
		timeout: timeout,
	}
}

// Name returns the strategy name
func (s *BridgeStrategy) Name() string { return StrategyBridge }

// Fetch resolves the bridge endpoint for the target domain and requests it.
// The bridge may answer with XML or with the aggregator JSON shape.
func (s *BridgeStrategy) Fetch(ctx context.Context, feedURL string) (*domain.RawFeed, error) {
	template := s.templateFor(feedURL)
	if template == "" {
		return nil, &coreerrors.UpstreamError{URL: feedURL, Message: "no bridge configured for domain"}
	}

	requestURL := fmt.Sprintf(template, url.QueryEscape(feedURL))
	return fetchBridgeLike(ctx, s.client, requestURL, s.Name(), s.timeout)
}

func (s *BridgeStrategy) templateFor(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return s.generic
	}
	host := parsed.Hostname()
	for _, cfg := range s.table {
		if cfg.Match != "" && strings.Contains(host, cfg.Match) {
			return cfg.URL
		}
	}
	return s.generic
}

// AggregatorStrategy queries a best-effort aggregator service that returns
// the JSON item shape. Each configured endpoint is its own strategy
// instance so the orchestrator can report which one served the request.
type AggregatorStrategy struct {
	client   interfaces.HTTPClient
	name     string
	endpoint string
	timeout  time.Duration
}

// NewAggregatorStrategy creates an aggregator strategy for one endpoint
// template (one %s placeholder for the escaped target URL).
func NewAggregatorStrategy(client interfaces.HTTPClient, name, endpoint string, timeout time.Duration) *AggregatorStrategy {
	return &AggregatorStrategy{
		client:   client,
		name:     name,
		endpoint: endpoint,
		timeout:  timeout,
	}
}

// Name returns the strategy name
func (s *AggregatorStrategy) Name() string { return s.name }

// Fetch requests the aggregator endpoint. Only a JSON body with an
// explicit success status counts as success.
func (s *AggregatorStrategy) Fetch(ctx context.Context, feedURL string) (*domain.RawFeed, error) {
	requestURL := fmt.Sprintf(s.endpoint, url.QueryEscape(feedURL))

	resp, err := s.client.GetWithOptions(ctx, requestURL, interfaces.RequestOptions{Timeout: s.timeout})
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: requestURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &coreerrors.UpstreamError{URL: requestURL, StatusCode: resp.StatusCode(), Message: "non-2xx response"}
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: requestURL, Message: err.Error()}
	}

	if err := checkAggregatorBody(body); err != nil {
		return nil, &coreerrors.UpstreamError{URL: requestURL, StatusCode: resp.StatusCode(), Message: err.Error()}
	}

	return &domain.RawFeed{Format: domain.FormatAggregator, Body: body, Strategy: s.name}, nil
}

// fetchBridgeLike performs the shared bridge request flow: a 2xx response
// succeeds when the body is XML feed data or aggregator JSON.
func fetchBridgeLike(ctx context.Context, client interfaces.HTTPClient, requestURL, strategy string, timeout time.Duration) (*domain.RawFeed, error) {
	resp, err := client.GetWithOptions(ctx, requestURL, interfaces.RequestOptions{Timeout: timeout})
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: requestURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &coreerrors.UpstreamError{URL: requestURL, StatusCode: resp.StatusCode(), Message: "non-2xx response"}
	}

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: requestURL, Message: err.Error()}
	}

	if looksLikeFeed(body) {
		return &domain.RawFeed{Format: domain.FormatUnknown, Body: body, Strategy: strategy}, nil
	}

	if err := checkAggregatorBody(body); err == nil {
		return &domain.RawFeed{Format: domain.FormatAggregator, Body: body, Strategy: strategy}, nil
	}

	return nil, &coreerrors.UpstreamError{URL: requestURL, StatusCode: resp.StatusCode(), Message: "bridge returned neither feed XML nor aggregator JSON"}
}

// looksLikeFeed reports whether body begins with a recognizable XML/RSS/Atom
// prologue.
func looksLikeFeed(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	trimmed = bytes.TrimPrefix(trimmed, []byte("\xef\xbb\xbf"))
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n")

	lowered := bytes.ToLower(trimmed)
	for _, prologue := range [][]byte{
		[]byte("<?xml"),
		[]byte("<rss"),
		[]byte("<feed"),
		[]byte("<rdf:rdf"),
	} {
		if bytes.HasPrefix(lowered, prologue) {
			return true
		}
	}
	return false
}

// checkAggregatorBody verifies the aggregator JSON contract: a parseable
// object with an explicit success status and an items list. Any deviation
// is a failure, not a crash.
func checkAggregatorBody(body []byte) error {
	var envelope struct {
		Status string          `json:"status"`
		Items  json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("body is not JSON: %w", err)
	}
	if envelope.Status != "ok" {
		return fmt.Errorf("aggregator reported status %q", envelope.Status)
	}
	if len(envelope.Items) == 0 {
		return fmt.Errorf("aggregator response has no items field")
	}
	return nil
}

func isFeedburnerHost(feedURL string) bool {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	return strings.Contains(parsed.Hostname(), "feedburner.com")
}

// embeddedFeedURL extracts the original feed URL embedded in a feedburner
// URL's query string, preferring conventional parameter names and falling
// back to any absolute http(s) value.
func embeddedFeedURL(feedURL string) string {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return ""
	}
	query := parsed.Query()

	for _, key := range []string{"url", "q", "orig"} {
		if candidate := query.Get(key); isAbsoluteHTTPURL(candidate) {
			return candidate
		}
	}

	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, candidate := range query[key] {
			if isAbsoluteHTTPURL(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func isAbsoluteHTTPURL(candidate string) bool {
	if candidate == "" {
		return false
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
