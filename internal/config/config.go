// internal/config/config.go
// Centralized configuration management
// Loads from environment variables with sensible defaults

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all client configuration
type Config struct {
	// Server endpoints
	APIBaseURL string
	WSBaseURL  string

	// Environment
	Environment string

	// Credential storage
	TokenFile string

	// Chat behavior
	HistoryLimit       int
	SortByTimestamp    bool
	UnreadPollInterval time.Duration

	// Reconnect policy for the live channel. Disabled by default to match
	// the original client; enable explicitly where the server is flaky.
	ReconnectEnabled         bool
	ReconnectInitialInterval time.Duration
	ReconnectMaxInterval     time.Duration
	ReconnectMaxAttempts     int

	// HTTP
	HTTPTimeout time.Duration

	// Debug/metrics listener ("" disables it)
	MetricsAddr string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("NEUROHELP_API_URL", "http://localhost:8080"),
		WSBaseURL:   getEnv("NEUROHELP_WS_URL", "ws://localhost:8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		TokenFile: getEnv("NEUROHELP_TOKEN_FILE", defaultTokenFile()),

		HistoryLimit:       getEnvInt("CHAT_HISTORY_LIMIT", 50),
		SortByTimestamp:    getEnvBool("CHAT_SORT_BY_TIMESTAMP", false),
		UnreadPollInterval: getEnvDuration("UNREAD_POLL_INTERVAL", "30s"),

		ReconnectEnabled:         getEnvBool("CHAT_RECONNECT_ENABLED", false),
		ReconnectInitialInterval: getEnvDuration("CHAT_RECONNECT_INITIAL_INTERVAL", "1s"),
		ReconnectMaxInterval:     getEnvDuration("CHAT_RECONNECT_MAX_INTERVAL", "30s"),
		ReconnectMaxAttempts:     getEnvInt("CHAT_RECONNECT_MAX_ATTEMPTS", 0),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", "15s"),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if c.WSBaseURL == "" {
		return fmt.Errorf("WebSocket base URL is required")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token file path is required")
	}

	if c.HistoryLimit < 1 || c.HistoryLimit > 200 {
		return fmt.Errorf("history limit must be between 1 and 200")
	}
	if c.UnreadPollInterval < time.Second {
		return fmt.Errorf("unread poll interval must be at least 1s")
	}
	if c.HTTPTimeout < time.Second {
		return fmt.Errorf("HTTP timeout must be at least 1s")
	}

	if c.ReconnectEnabled {
		if c.ReconnectInitialInterval <= 0 || c.ReconnectMaxInterval < c.ReconnectInitialInterval {
			return fmt.Errorf("invalid reconnect backoff configuration")
		}
		if c.ReconnectMaxAttempts < 0 {
			return fmt.Errorf("reconnect max attempts must not be negative")
		}
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".neurohelp/token"
	}
	return filepath.Join(home, ".neurohelp", "token")
}

// Helper functions

// getEnv gets a string value from environment with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment with a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment with a default
func getEnvDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		// If parsing fails, try to parse the default
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}

// getEnvBool gets a boolean value from environment with a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
