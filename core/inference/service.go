// ABOUTME: Inference proxy service forwarding requests to an upstream model endpoint
// ABOUTME: A static table maps friendly model names to upstream identifiers

package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	coreerrors "feedrelay-api/core/errors"
	"feedrelay-api/core/interfaces"
)

// modelTable maps the model names clients use to the identifiers the
// upstream endpoint expects.
var modelTable = map[string]string{
	"summarize":  "facebook/bart-large-cnn",
	"sentiment":  "distilbert-base-uncased-finetuned-sst-2-english",
	"embeddings": "sentence-transformers/all-MiniLM-L6-v2",
}

// Request is one inference call.
type Request struct {
	// Model is the friendly model name, resolved through the table.
	Model string `json:"model"`

	// Inputs is the payload forwarded to the upstream model.
	Inputs json.RawMessage `json:"inputs"`
}

// Result carries the upstream response body untouched.
type Result struct {
	Model string
	Body  []byte
}

// InferenceService forwards inference requests to one upstream endpoint.
type InferenceService struct {
	deps        interfaces.Dependencies
	upstreamURL string
}

// NewInferenceService creates an inference service targeting upstreamURL.
func NewInferenceService(deps interfaces.Dependencies, upstreamURL string) *InferenceService {
	return &InferenceService{
		deps:        deps,
		upstreamURL: upstreamURL,
	}
}

// Models returns the known friendly model names.
func (s *InferenceService) Models() []string {
	names := make([]string, 0, len(modelTable))
	for name := range modelTable {
		names = append(names, name)
	}
	return names
}

// Infer resolves req.Model and forwards the inputs upstream.
func (s *InferenceService) Infer(ctx context.Context, req Request) (*Result, error) {
	if req.Model == "" {
		return nil, &coreerrors.InputError{Field: "model", Message: "model is required"}
	}
	upstreamModel, ok := modelTable[req.Model]
	if !ok {
		return nil, &coreerrors.InputError{Field: "model", Message: "unknown model: " + req.Model}
	}
	if len(req.Inputs) == 0 {
		return nil, &coreerrors.InputError{Field: "inputs", Message: "inputs is required"}
	}
	if s.upstreamURL == "" {
		return nil, &coreerrors.UpstreamError{Message: "no inference upstream configured"}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"model":  upstreamModel,
		"inputs": req.Inputs,
	})
	if err != nil {
		return nil, err
	}

	resp, err := s.deps.HTTPClient.Post(ctx, s.upstreamURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: s.upstreamURL, Message: err.Error()}
	}
	defer resp.Body().Close()

	body, err := io.ReadAll(resp.Body())
	if err != nil {
		return nil, &coreerrors.UpstreamError{URL: s.upstreamURL, Message: err.Error()}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &coreerrors.UpstreamError{
			URL:        s.upstreamURL,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("inference upstream returned status %d", resp.StatusCode()),
		}
	}

	if s.deps.Logger != nil {
		s.deps.Logger.Debug("inference completed", map[string]interface{}{
			"model":         req.Model,
			"upstreamModel": upstreamModel,
		})
	}

	return &Result{Model: req.Model, Body: body}, nil
}
