// ABOUTME: Inference endpoint handler: POST /inference forwards to the model upstream
// ABOUTME: Relays the upstream JSON response body untouched

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/inference"
)

// InferenceService is the inference surface the handler needs.
type InferenceService interface {
	Infer(ctx context.Context, req inference.Request) (*inference.Result, error)
	Models() []string
}

// InferenceHandler handles inference proxy HTTP requests
type InferenceHandler struct {
	service InferenceService
}

// NewInferenceHandler creates a new inference handler
func NewInferenceHandler(service InferenceService) *InferenceHandler {
	return &InferenceHandler{service: service}
}

// Infer handles POST /inference with a JSON {model, inputs} body.
func (h *InferenceHandler) Infer(w http.ResponseWriter, r *http.Request) {
	var req inference.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &coreerrors.InputError{Field: "body", Message: "request body must be JSON"})
		return
	}

	result, err := h.service.Infer(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Body)
}

// Models handles GET /inference/models.
func (h *InferenceHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"models": h.service.Models()})
}
