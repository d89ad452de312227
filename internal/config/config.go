package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	SubmitTimeout      time.Duration
	BackendTimeout     time.Duration
	MaxRequestBodySize int64
	SessionIdleTTL     time.Duration
	LogLevel           string

	// Analysis backend the console submits to
	BackendURL string

	// Reference analysis backend
	AnalyzerPort      string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiVisionModel string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func (c *Config) AnalyzerAddress() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.AnalyzerPort))
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		SubmitTimeout:      parseDurationOrDefault("SUBMIT_TIMEOUT", 5*time.Minute),
		BackendTimeout:     parseDurationOrDefault("BACKEND_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		SessionIdleTTL:     parseDurationOrDefault("SESSION_IDLE_TTL", 30*time.Minute),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		BackendURL:         getEnvOrDefault("BACKEND_URL", "http://localhost:8081/analyze"),
		AnalyzerPort:       getEnvOrDefault("ANALYZER_PORT", "8081"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiVisionModel:  getEnvOrDefault("GEMINI_VISION_MODEL", "gemini-1.5-pro"),
	}

	if err := validatePort("PORT", cfg.Port); err != nil {
		return nil, err
	}
	if err := validatePort("ANALYZER_PORT", cfg.AnalyzerPort); err != nil {
		return nil, err
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if u, err := url.Parse(cfg.BackendURL); err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid BACKEND_URL: %q", cfg.BackendURL)
	}
	return cfg, nil
}

func validatePort(key, value string) error {
	p, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid %s: %q", key, value)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
