// ABOUTME: Feed endpoint handler: GET /feed with cache, strategy and debug controls
// ABOUTME: Sets X-Cache so clients can tell a cached response from a fresh fetch

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"feedrelay-api/core/feed"
)

// FeedService is the feed surface the handler needs.
type FeedService interface {
	GetFeed(ctx context.Context, feedURL string, opts feed.GetOptions) (*feed.Result, error)
}

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	service FeedService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(service FeedService) *FeedHandler {
	return &FeedHandler{service: service}
}

// debugFeedResponse wraps the feed with retrieval metadata when debug=true.
type debugFeedResponse struct {
	Feed     interface{} `json:"feed"`
	Strategy string      `json:"strategy"`
	CacheHit bool        `json:"cacheHit"`
}

// GetFeed handles GET /feed?url=&strategy=&bypassCache=&debug=
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := feed.GetOptions{
		Strategy:    query.Get("strategy"),
		BypassCache: boolParam(query.Get("bypassCache")),
	}

	result, err := h.service.GetFeed(r.Context(), query.Get("url"), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	if boolParam(query.Get("debug")) {
		writeJSON(w, http.StatusOK, debugFeedResponse{
			Feed:     result.Feed,
			Strategy: result.Strategy,
			CacheHit: result.CacheHit,
		})
		return
	}

	writeJSON(w, http.StatusOK, result.Feed)
}

// boolParam treats "1", "t", "true" etc. as true and anything else,
// including absence, as false.
func boolParam(value string) bool {
	parsed, err := strconv.ParseBool(value)
	return err == nil && parsed
}
