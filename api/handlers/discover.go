// ABOUTME: Discovery endpoint handler: GET /discover finds the feeds a site offers
// ABOUTME: Thin wrapper over the discovery service

package handlers

import (
	"context"
	"net/http"

	"feedrelay-api/core/domain"
)

// DiscoveryService is the discovery surface the handler needs.
type DiscoveryService interface {
	Discover(ctx context.Context, siteURL string) (*domain.DiscoveryResult, error)
}

// DiscoverHandler handles feed discovery HTTP requests
type DiscoverHandler struct {
	service DiscoveryService
}

// NewDiscoverHandler creates a new discovery handler
func NewDiscoverHandler(service DiscoveryService) *DiscoverHandler {
	return &DiscoverHandler{service: service}
}

// Discover handles GET /discover?url=
func (h *DiscoverHandler) Discover(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Discover(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	if result.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	writeJSON(w, http.StatusOK, result)
}
