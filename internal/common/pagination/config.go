// Package pagination implements opaque-cursor pagination for the feed
// scroll endpoint: a cursor identifies the highest-index item already
// served in a session's pool, and the next page starts strictly after it.
package pagination

import (
	"os"
	"strconv"
)

// Config holds scroll pagination configuration settings.
// These values can be loaded from environment variables or config files.
type Config struct {
	DefaultLimit int // Default batch size when limit is omitted
	MaxLimit     int // Maximum allowed batch size
}

// DefaultConfig returns the default pagination configuration.
// Default values: limit=20, max=100
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// LoadFromEnv loads pagination config from environment variables.
// Supported environment variables:
//   - FEED_SCROLL_DEFAULT_LIMIT: Default batch size
//   - FEED_SCROLL_MAX_LIMIT: Maximum batch size
//
// Falls back to DefaultConfig() if environment variables are not set.
func LoadFromEnv() Config {
	return Config{
		DefaultLimit: getEnvAsInt("FEED_SCROLL_DEFAULT_LIMIT", 20),
		MaxLimit:     getEnvAsInt("FEED_SCROLL_MAX_LIMIT", 100),
	}
}

// getEnvAsInt retrieves an environment variable and parses it as an integer.
// Returns the default value if the variable is not set or cannot be parsed.
func getEnvAsInt(key string, defaultValue int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}
