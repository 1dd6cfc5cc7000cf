// ABOUTME: HTTP router wiring handlers, CORS and middleware into one handler
// ABOUTME: Routes method-match on the mux patterns, everything else answers JSON errors

package api

import (
	"net/http"

	"github.com/rs/cors"

	"feedrelay-api/api/handlers"
	"feedrelay-api/api/middleware"
	"feedrelay-api/core/interfaces"
)

// RouterConfig holds the handlers and cross-cutting settings for the API.
type RouterConfig struct {
	Feed      *handlers.FeedHandler
	Discover  *handlers.DiscoverHandler
	Image     *handlers.ImageHandler
	Reader    *handlers.ReaderHandler
	Inference *handlers.InferenceHandler

	Logger interfaces.Logger

	// RateLimitPerSecond enables per-IP rate limiting when > 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// NewRouter builds the full HTTP handler chain: CORS, request logging,
// rate limiting, then routing.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /feed", cfg.Feed.GetFeed)
	mux.HandleFunc("GET /discover", cfg.Discover.Discover)
	mux.HandleFunc("GET /image", cfg.Image.GetImage)
	mux.HandleFunc("GET /reader", cfg.Reader.Extract)
	mux.HandleFunc("POST /inference", cfg.Inference.Infer)
	mux.HandleFunc("GET /inference/models", cfg.Inference.Models)
	mux.HandleFunc("GET /health", healthHandler)

	var handler http.Handler = mux

	if cfg.RateLimitPerSecond > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
		handler = middleware.RateLimitMiddleware(limiter)(handler)
	}

	if cfg.Logger != nil {
		handler = middleware.RequestLoggingMiddleware(cfg.Logger)(handler)
	}

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
		// Some embedded clients treat 204 preflights as failures.
		OptionsSuccessStatus: http.StatusOK,
	}).Handler(handler)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
