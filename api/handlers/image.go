// ABOUTME: Image proxy endpoint handler: GET /image fetches, resizes and re-encodes
// ABOUTME: Serves binary image data with long-lived client cache headers

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"feedrelay-api/core/images"
)

// ImageService is the image surface the handler needs.
type ImageService interface {
	GetImage(ctx context.Context, imageURL string, opts images.Options) (*images.Result, error)
}

// ImageHandler handles image proxy HTTP requests
type ImageHandler struct {
	service ImageService
}

// NewImageHandler creates a new image handler
func NewImageHandler(service ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// GetImage handles GET /image?url=&width=&height=&quality=&format=
func (h *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	opts := images.Options{
		Width:   uintParam(query.Get("width")),
		Height:  uintParam(query.Get("height")),
		Quality: intParam(query.Get("quality")),
		Format:  query.Get("format"),
	}

	result, err := h.service.GetImage(r.Context(), query.Get("url"), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.CacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func uintParam(value string) uint {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return uint(parsed)
}

func intParam(value string) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
