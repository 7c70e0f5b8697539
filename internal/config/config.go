package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ErrNoAPIKey is returned by RequireAPIKey when no key is configured
var ErrNoAPIKey = errors.New("no AI API key configured")

// KeyLookup returns a stored API key, or an error when none is available.
type KeyLookup func() (string, error)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	OpenAIKey        string
	AIProvider       string
	AIModel          string
	AIBaseURL        string
	AITimeout        time.Duration
	JWTSecret        string
	RedisURL         string
	RateLimit        string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	LogFile          string
	LogMaxSizeMB     int
	LogMaxBackups    int
	LogMaxAgeDays    int
	SessionIdleTTL   time.Duration
	DLQGCInterval    time.Duration
	DLQRetention     time.Duration
}

// Load loads configuration from environment variables. DATABASE_URL is
// required; RABBITMQ_URL is optional for the server (queued scheduling is
// disabled without it) and checked by the worker with RequireQueue.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		AITimeout:        getEnvDuration("AI_TIMEOUT", 30*time.Second),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RateLimit:        getEnv("RATE_LIMIT", "100-M"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogFile:          getEnv("LOG_FILE", ""),
		LogMaxSizeMB:     getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:    getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:    getEnvInt("LOG_MAX_AGE_DAYS", 30),
		SessionIdleTTL:   getEnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		DLQGCInterval:    getEnvDuration("DLQ_GC_INTERVAL", time.Hour),
		DLQRetention:     getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// RequireQueue reports an error when no RabbitMQ URL is configured.
func (c *Config) RequireQueue() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for job queueing")
	}
	return nil
}

// ResolveAPIKey fills OpenAIKey from lookup when the environment did not set
// it. A lookup failure leaves the key empty; AI features then fall back.
func (c *Config) ResolveAPIKey(lookup KeyLookup) {
	if c.OpenAIKey != "" || lookup == nil {
		return
	}
	if key, err := lookup(); err == nil {
		c.OpenAIKey = key
	}
}

// RequireAPIKey returns ErrNoAPIKey when no key is configured.
func (c *Config) RequireAPIKey() error {
	if c.OpenAIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ProviderConfig returns the settings map handed to the AI provider registry.
func (c *Config) ProviderConfig() map[string]string {
	return map[string]string{
		"api_key":         c.OpenAIKey,
		"base_url":        c.AIBaseURL,
		"model":           c.AIModel,
		"timeout_seconds": strconv.Itoa(int(c.AITimeout / time.Second)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
