// ABOUTME: Feed service drives retrieve -> normalize -> cache for feed requests
// ABOUTME: Provides business logic for feed operations independent of HTTP layer

package feed

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"feedrelay-api/core/domain"
	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/fetch"
	"feedrelay-api/core/interfaces"
)

// Retriever is the orchestrator surface the service needs.
type Retriever interface {
	Retrieve(ctx context.Context, feedURL string, opts fetch.Options, accept fetch.AcceptFunc) (*domain.RawFeed, error)
}

// GetOptions controls a single feed request.
type GetOptions struct {
	// Strategy forces a single named strategy; empty or "auto" walks
	// the fallback order.
	Strategy string

	// BypassCache skips the cache read but still writes the fresh
	// result back.
	BypassCache bool
}

// Result is a normalized feed plus how it was obtained.
type Result struct {
	Feed     *domain.NormalizedFeed
	CacheHit bool
	Strategy string
}

// cacheEntry is the stored-by-value shape of a cache record.
type cacheEntry struct {
	Feed       domain.NormalizedFeed `json:"feed"`
	Strategy   string                `json:"strategy"`
	CapturedAt time.Time             `json:"capturedAt"`
}

// FeedService handles feed retrieval, normalization and caching.
type FeedService struct {
	deps       interfaces.Dependencies
	retriever  Retriever
	normalizer *Normalizer
	ttl        time.Duration
}

// NewFeedService creates a new feed service instance. ttl bounds the
// staleness of cached feeds.
func NewFeedService(deps interfaces.Dependencies, retriever Retriever, ttl time.Duration) *FeedService {
	return &FeedService{
		deps:       deps,
		retriever:  retriever,
		normalizer: NewNormalizer(nil),
		ttl:        ttl,
	}
}

// GetFeed returns the normalized feed for feedURL, serving from cache when
// a fresh entry exists and opts does not bypass it.
func (s *FeedService) GetFeed(ctx context.Context, feedURL string, opts GetOptions) (*Result, error) {
	if feedURL == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url parameter is required"}
	}
	parsed, err := url.Parse(feedURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &coreerrors.InputError{Field: "url", Message: "url must be an absolute http(s) URL"}
	}

	if !opts.BypassCache {
		if result := s.cachedResult(ctx, feedURL); result != nil {
			return result, nil
		}
	}

	var normalized *domain.NormalizedFeed
	raw, err := s.retriever.Retrieve(ctx, feedURL, fetch.Options{Strategy: opts.Strategy}, func(raw *domain.RawFeed) error {
		feed, nerr := s.normalizer.Normalize(raw, feedURL)
		if nerr != nil {
			return nerr
		}
		normalized = feed
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cache keyed by the original request URL, not the strategy used.
	s.cacheResult(ctx, feedURL, normalized, raw.Strategy)

	return &Result{Feed: normalized, CacheHit: false, Strategy: raw.Strategy}, nil
}

func (s *FeedService) cachedResult(ctx context.Context, feedURL string) *Result {
	if s.deps.Cache == nil {
		return nil
	}

	data, err := s.deps.Cache.Get(ctx, cacheKey(feedURL))
	if err != nil || data == nil {
		return nil
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		if s.deps.Logger != nil {
			s.deps.Logger.Warn("discarding undecodable cache entry", map[string]interface{}{
				"url":   feedURL,
				"error": err.Error(),
			})
		}
		return nil
	}

	return &Result{Feed: &entry.Feed, CacheHit: true, Strategy: entry.Strategy}
}

func (s *FeedService) cacheResult(ctx context.Context, feedURL string, feed *domain.NormalizedFeed, strategy string) {
	if s.deps.Cache == nil || feed == nil {
		return
	}

	data, err := json.Marshal(cacheEntry{
		Feed:       *feed,
		Strategy:   strategy,
		CapturedAt: time.Now(),
	})
	if err != nil {
		return
	}

	if err := s.deps.Cache.Set(ctx, cacheKey(feedURL), data, s.ttl); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Warn("failed to cache feed", map[string]interface{}{
			"url":   feedURL,
			"error": err.Error(),
		})
	}
}

func cacheKey(feedURL string) string {
	return "feed:" + feedURL
}
