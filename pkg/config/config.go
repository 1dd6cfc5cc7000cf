// ABOUTME: Configuration management for the application with environment variable support
// ABOUTME: Defines configuration structures for server, cache, and retrieval settings

package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig

	// Cache contains cache configuration
	Cache CacheConfig

	// Retrieval contains feed retrieval configuration
	Retrieval RetrievalConfig

	// Inference contains inference proxy configuration
	Inference InferenceConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	// Port is the HTTP server port
	Port string

	// LogLevel is the minimum log level (debug/info/warn/error)
	LogLevel string

	// RateLimitPerSecond is the per-client request rate; 0 disables limiting
	RateLimitPerSecond float64

	// RateLimitBurst is the per-client burst allowance
	RateLimitBurst int
}

// CacheConfig holds cache backend configuration
type CacheConfig struct {
	// Type specifies the cache backend (redis/memory)
	Type string

	// Redis contains Redis-specific configuration
	Redis RedisConfig

	// MaxEntries is the in-memory cache high-water mark
	MaxEntries int

	// FeedTTLMinutes is the TTL for normalized feed entries
	FeedTTLMinutes int

	// ImageTTLHours is the TTL for proxied image entries
	ImageTTLHours int

	// DiscoveryTTLHours is the TTL for feed discovery results
	DiscoveryTTLHours int
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Address is the Redis server address
	Address string

	// Password is the Redis authentication password
	Password string

	// DB is the Redis database number
	DB int
}

// RetrievalConfig holds feed retrieval configuration
type RetrievalConfig struct {
	// StrategyOrder is the fallback order for auto mode
	StrategyOrder []string

	// BridgeBaseURL is the feed-extraction bridge endpoint template;
	// %s is replaced with the escaped feed URL
	BridgeBaseURL string

	// AggregatorURLs are JSON aggregator endpoint templates, tried in order
	AggregatorURLs []string

	// DirectTimeoutSeconds bounds a direct fetch attempt
	DirectTimeoutSeconds int

	// BridgeTimeoutSeconds bounds a bridge or aggregator fetch attempt
	BridgeTimeoutSeconds int

	// InsecureTLS skips upstream certificate verification
	InsecureTLS bool
}

// InferenceConfig holds inference proxy configuration
type InferenceConfig struct {
	// UpstreamURL is the model endpoint requests are forwarded to
	UpstreamURL string

	// TimeoutSeconds bounds an upstream inference call
	TimeoutSeconds int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnvOrDefault("PORT", "8000"),
			LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
			RateLimitPerSecond: getEnvAsFloatOrDefault("RATE_LIMIT_PER_SECOND", 0),
			RateLimitBurst:     getEnvAsIntOrDefault("RATE_LIMIT_BURST", 20),
		},
		Cache: CacheConfig{
			Type: getEnvOrDefault("CACHE_TYPE", "memory"),
			Redis: RedisConfig{
				Address:  getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
				Password: getEnvOrDefault("REDIS_PASSWORD", ""),
				DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
			},
			MaxEntries:        getEnvAsIntOrDefault("CACHE_MAX_ENTRIES", 500),
			FeedTTLMinutes:    getEnvAsIntOrDefault("FEED_CACHE_TTL_MINUTES", 15),
			ImageTTLHours:     getEnvAsIntOrDefault("IMAGE_CACHE_TTL_HOURS", 24),
			DiscoveryTTLHours: getEnvAsIntOrDefault("DISCOVERY_CACHE_TTL_HOURS", 24),
		},
		Retrieval: RetrievalConfig{
			StrategyOrder:        getEnvAsListOrDefault("STRATEGY_ORDER", []string{"direct", "bridge"}),
			BridgeBaseURL:        getEnvOrDefault("BRIDGE_BASE_URL", ""),
			AggregatorURLs:       getEnvAsListOrDefault("AGGREGATOR_URLS", nil),
			DirectTimeoutSeconds: getEnvAsIntOrDefault("DIRECT_FETCH_TIMEOUT_SECONDS", 15),
			BridgeTimeoutSeconds: getEnvAsIntOrDefault("BRIDGE_FETCH_TIMEOUT_SECONDS", 20),
			InsecureTLS:          getEnvAsBoolOrDefault("INSECURE_TLS", false),
		},
		Inference: InferenceConfig{
			UpstreamURL:    getEnvOrDefault("INFERENCE_UPSTREAM_URL", ""),
			TimeoutSeconds: getEnvAsIntOrDefault("INFERENCE_TIMEOUT_SECONDS", 60),
		},
	}

	return cfg, nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault returns the environment variable as int or a default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloatOrDefault returns the environment variable as float64 or a default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault returns the environment variable as bool or a default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsListOrDefault splits a comma-separated environment variable,
// trimming whitespace and dropping empty segments.
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("port cannot be empty")
	}

	if c.Cache.Type != "redis" && c.Cache.Type != "memory" {
		return errors.New("cache type must be 'redis' or 'memory'")
	}

	if c.Cache.Type == "redis" && c.Cache.Redis.Address == "" {
		return errors.New("redis address cannot be empty when using redis cache")
	}

	if c.Cache.FeedTTLMinutes < 1 {
		return errors.New("feed cache TTL must be at least 1 minute")
	}

	if c.Retrieval.DirectTimeoutSeconds < 1 {
		return errors.New("direct fetch timeout must be at least 1 second")
	}

	for _, name := range c.Retrieval.StrategyOrder {
		if name != "direct" && name != "bridge" && !strings.HasPrefix(name, "aggregator") {
			return errors.New("unknown strategy in STRATEGY_ORDER: " + name)
		}
	}

	return nil
}
