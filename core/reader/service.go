// ABOUTME: Reader view service extracting clean article content with go-readability
// ABOUTME: Fetches pages through the shared HTTP client so header profiles apply

package reader

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/interfaces"
)

// ReaderService extracts reader views from article pages.
type ReaderService struct {
	deps    interfaces.Dependencies
	ttl     time.Duration
	timeout time.Duration
}

// NewReaderService creates a reader service caching extractions for ttl.
func NewReaderService(deps interfaces.Dependencies, ttl time.Duration) *ReaderService {
	return &ReaderService{
		deps:    deps,
		ttl:     ttl,
		timeout: 30 * time.Second,
	}
}

// Extract returns the reader view for pageURL.
func (s *ReaderService) Extract(ctx context.Context, pageURL string) (*domain.ReaderView, error) {
	if pageURL == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url parameter is required"}
	}
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url must be an absolute http(s) URL"}
	}

	if cached := s.cachedView(ctx, pageURL); cached != nil {
		return cached, nil
	}

	resp, err := s.deps.HTTPClient.GetWithOptions(ctx, pageURL, interfaces.RequestOptions{
		Headers: map[string]string{"Accept": "text/html"},
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: pageURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	if resp.StatusCode() != 200 {
		return nil, &coreerrors.UpstreamError{
			URL:        pageURL,
			StatusCode: resp.StatusCode(),
			Message:    "article fetch failed",
		}
	}

	article, err := readability.FromReader(resp.Body(), parsed)
	if err != nil {
		return nil, &coreerrors.ParseError{URL: pageURL, Message: err.Error()}
	}

	view := &domain.ReaderView{
		URL:         pageURL,
		Status:      "ok",
		Title:       article.Title,
		Content:     article.Content,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		Markdown:    s.toMarkdown(pageURL, article.Title, article.SiteName, article.Content),
	}

	s.cacheView(ctx, pageURL, view)

	return view, nil
}

// toMarkdown renders the extracted HTML as markdown with a small metadata
// preamble. Conversion failure leaves the field empty, never fails the
// extraction.
func (s *ReaderService) toMarkdown(pageURL, title, siteName, content string) string {
	if content == "" {
		return ""
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Debug("markdown conversion failed", map[string]interface{}{
				"url":   pageURL,
				"error": err.Error(),
			})
		}
		return ""
	}

	var out strings.Builder
	if title != "" {
		out.WriteString("# ")
		out.WriteString(title)
		out.WriteString("\n\n")
	}
	if siteName != "" {
		out.WriteString("**Source:** ")
		out.WriteString(siteName)
		out.WriteString("\n\n---\n\n")
	}
	out.WriteString(cleanMarkdown(markdown))

	return out.String()
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

func cleanMarkdown(markdown string) string {
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	markdown = excessNewlines.ReplaceAllString(markdown, "\n\n")
	return strings.TrimSpace(markdown)
}

func (s *ReaderService) cachedView(ctx context.Context, pageURL string) *domain.ReaderView {
	if s.deps.Cache == nil {
		return nil
	}

	data, err := s.deps.Cache.Get(ctx, readerCacheKey(pageURL))
	if err != nil || data == nil {
		return nil
	}

	var view domain.ReaderView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil
	}
	return &view
}

func (s *ReaderService) cacheView(ctx context.Context, pageURL string, view *domain.ReaderView) {
	if s.deps.Cache == nil {
		return
	}

	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	_ = s.deps.Cache.Set(ctx, readerCacheKey(pageURL), data, s.ttl)
}

func readerCacheKey(pageURL string) string {
	return "reader:" + pageURL
}
