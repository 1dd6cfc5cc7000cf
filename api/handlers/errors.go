// ABOUTME: Error handling utilities for API handlers
// ABOUTME: Converts domain errors to JSON HTTP responses

package handlers

import (
	"encoding/json"
	"net/http"

	coreerrors "feedrelay-api/core/errors"
)

// errorResponse is the JSON error body shape.
type errorResponse struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	TriedStrategies []string `json:"triedStrategies,omitempty"`
}

// writeError maps a domain error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	status := http.StatusInternalServerError
	body := errorResponse{Error: "internal_error", Message: "internal server error"}

	switch {
	case coreerrors.IsInput(err):
		status = http.StatusBadRequest
		body = errorResponse{Error: "invalid_request", Message: err.Error()}
	default:
		if failure, ok := coreerrors.AsRetrievalFailure(err); ok {
			status = http.StatusNotFound
			body = errorResponse{
				Error:           "feed_unavailable",
				Message:         err.Error(),
				TriedStrategies: failure.Tried,
			}
			break
		}
		if coreerrors.IsUpstream(err) {
			status = http.StatusBadGateway
			body = errorResponse{Error: "upstream_error", Message: err.Error()}
			break
		}
		if coreerrors.IsParse(err) {
			status = http.StatusBadGateway
			body = errorResponse{Error: "unparseable_content", Message: err.Error()}
		}
	}

	writeJSON(w, status, body)
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
