// ABOUTME: Reader view endpoint handler: GET /reader extracts clean article content
// ABOUTME: Thin wrapper over the reader service

package handlers

import (
	"context"
	"net/http"

	"feedrelay-api/core/domain"
)

// ReaderService is the reader surface the handler needs.
type ReaderService interface {
	Extract(ctx context.Context, pageURL string) (*domain.ReaderView, error)
}

// ReaderHandler handles reader view HTTP requests
type ReaderHandler struct {
	service ReaderService
}

// NewReaderHandler creates a new reader handler
func NewReaderHandler(service ReaderService) *ReaderHandler {
	return &ReaderHandler{service: service}
}

// Extract handles GET /reader?url=
func (h *ReaderHandler) Extract(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Extract(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
