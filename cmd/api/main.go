// ABOUTME: Main entry point for the Feed Relay API server
// ABOUTME: Wires together all components and starts the HTTP server

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedrelay-api/api"
	"feedrelay-api/api/handlers"
	"feedrelay-api/core/discovery"
	"feedrelay-api/core/feed"
	"feedrelay-api/core/fetch"
	"feedrelay-api/core/images"
	"feedrelay-api/core/inference"
	"feedrelay-api/core/interfaces"
	"feedrelay-api/core/reader"
	"feedrelay-api/infrastructure/cache/memory"
	"feedrelay-api/infrastructure/cache/redis"
	stdhttp "feedrelay-api/infrastructure/http/standard"
	logruslogger "feedrelay-api/infrastructure/logger/logrus"
	"feedrelay-api/pkg/config"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logruslogger.NewLogrusLogger(cfg.Server.LogLevel)
	logger.Info("Starting Feed Relay API", map[string]interface{}{
		"port":       cfg.Server.Port,
		"cache_type": cfg.Cache.Type,
		"strategies": cfg.Retrieval.StrategyOrder,
	})

	// Create cache
	var cache interfaces.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("Failed to create Redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			cache = memory.NewMemoryCache(cfg.Cache.MaxEntries, nil)
		} else {
			cache = redisCache
			logger.Info("Using Redis cache", map[string]interface{}{
				"address": cfg.Cache.Redis.Address,
			})
		}
	default:
		cache = memory.NewMemoryCache(cfg.Cache.MaxEntries, nil)
		logger.Info("Using memory cache", map[string]interface{}{
			"max_entries": cfg.Cache.MaxEntries,
		})
	}

	httpClient := stdhttp.NewStandardHTTPClient(30 * time.Second)

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: httpClient,
		Logger:     logger,
	}

	// Shared header table so feed and image fetches speak each
	// publisher's dialect consistently.
	headerTable := fetch.NewHeaderTable()

	orchestrator := fetch.NewOrchestrator(buildStrategies(cfg, httpClient, headerTable), logger)

	feedTTL := time.Duration(cfg.Cache.FeedTTLMinutes) * time.Minute
	imageTTL := time.Duration(cfg.Cache.ImageTTLHours) * time.Hour
	discoveryTTL := time.Duration(cfg.Cache.DiscoveryTTLHours) * time.Hour

	feedService := feed.NewFeedService(deps, orchestrator, feedTTL)
	discoveryService := discovery.NewDiscoveryService(deps, discoveryTTL)
	imageService := images.NewImageService(deps, headerTable, imageTTL)
	readerService := reader.NewReaderService(deps, time.Hour)
	inferenceService := inference.NewInferenceService(deps, cfg.Inference.UpstreamURL)

	router := api.NewRouter(api.RouterConfig{
		Feed:               handlers.NewFeedHandler(feedService),
		Discover:           handlers.NewDiscoverHandler(discoveryService),
		Image:              handlers.NewImageHandler(imageService),
		Reader:             handlers.NewReaderHandler(readerService),
		Inference:          handlers.NewInferenceHandler(inferenceService),
		Logger:             logger,
		RateLimitPerSecond: cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", map[string]interface{}{
				"error": err.Error(),
			})
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server stopped", nil)
}

// buildStrategies assembles the retrieval fallback chain from configuration.
// Names in STRATEGY_ORDER select strategies; aggregator names bind to the
// configured endpoint list in order.
func buildStrategies(cfg *config.Config, client interfaces.HTTPClient, headers *fetch.HeaderTable) []fetch.Strategy {
	directTimeout := time.Duration(cfg.Retrieval.DirectTimeoutSeconds) * time.Second
	bridgeTimeout := time.Duration(cfg.Retrieval.BridgeTimeoutSeconds) * time.Second

	var strategies []fetch.Strategy
	aggregatorIdx := 0

	for _, name := range cfg.Retrieval.StrategyOrder {
		switch name {
		case fetch.StrategyDirect:
			strategies = append(strategies, fetch.NewDirectStrategy(client, headers, directTimeout, cfg.Retrieval.InsecureTLS))
		case fetch.StrategyBridge:
			strategies = append(strategies, fetch.NewBridgeStrategy(client, nil, cfg.Retrieval.BridgeBaseURL, bridgeTimeout))
		default:
			// Aggregator slot: bind the next configured endpoint.
			if aggregatorIdx < len(cfg.Retrieval.AggregatorURLs) {
				endpoint := cfg.Retrieval.AggregatorURLs[aggregatorIdx]
				strategies = append(strategies, fetch.NewAggregatorStrategy(client, name, endpoint, bridgeTimeout))
				aggregatorIdx++
			}
		}
	}

	// Remaining aggregator endpoints go to the end of the chain.
	for i := aggregatorIdx; i < len(cfg.Retrieval.AggregatorURLs); i++ {
		name := fmt.Sprintf("aggregator-%d", i+1)
		strategies = append(strategies, fetch.NewAggregatorStrategy(client, name, cfg.Retrieval.AggregatorURLs[i], bridgeTimeout))
	}

	return strategies
}
