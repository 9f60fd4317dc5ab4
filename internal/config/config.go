// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	NATS        NATSConfig
	Assessor    AssessorConfig
	News        NewsConfig
	ScamWatch   ScamWatchConfig
	Safety      SafetyConfig
	Tracker     TrackerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// AssessorConfig holds AI safety assessor configuration
type AssessorConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

// NewsConfig holds news search configuration
type NewsConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

// ScamWatchConfig holds scam/news aggregator configuration
type ScamWatchConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
	CacheTTL   time.Duration
	CacheSize  int
}

// SafetyConfig holds aggregation configuration
type SafetyConfig struct {
	DocumentTTL   time.Duration
	CacheSize     int
	EventsSubject string
}

// TrackerConfig holds user location tracking configuration
type TrackerConfig struct {
	TTL             time.Duration
	MoveThresholdKm float64
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
		},
		Assessor: AssessorConfig{
			BaseURL:    getEnv("ASSESSOR_BASE_URL", "https://api.openai.com"),
			APIKey:     getEnv("ASSESSOR_API_KEY", ""),
			Model:      getEnv("ASSESSOR_MODEL", "gpt-4o-mini"),
			Timeout:    getEnvAsDuration("ASSESSOR_TIMEOUT", 20*time.Second),
			RateLimit:  getEnvAsInt("ASSESSOR_RATE_LIMIT", 10),
			RateWindow: getEnvAsDuration("ASSESSOR_RATE_WINDOW", 1*time.Minute),
			CacheTTL:   getEnvAsDuration("ASSESSOR_CACHE_TTL", 30*time.Minute),
			CacheSize:  getEnvAsInt("ASSESSOR_CACHE_SIZE", 50),
		},
		News: NewsConfig{
			BaseURL:    getEnv("NEWS_BASE_URL", "https://gnews.io/api/v4"),
			APIKey:     getEnv("NEWS_API_KEY", ""),
			Timeout:    getEnvAsDuration("NEWS_TIMEOUT", 10*time.Second),
			RateLimit:  getEnvAsInt("NEWS_RATE_LIMIT", 10),
			RateWindow: getEnvAsDuration("NEWS_RATE_WINDOW", 1*time.Minute),
			CacheTTL:   getEnvAsDuration("NEWS_CACHE_TTL", 5*time.Minute),
			CacheSize:  getEnvAsInt("NEWS_CACHE_SIZE", 50),
		},
		ScamWatch: ScamWatchConfig{
			BaseURL:    getEnv("SCAMWATCH_BASE_URL", "http://localhost:9090"),
			Timeout:    getEnvAsDuration("SCAMWATCH_TIMEOUT", 10*time.Second),
			RateLimit:  getEnvAsInt("SCAMWATCH_RATE_LIMIT", 10),
			RateWindow: getEnvAsDuration("SCAMWATCH_RATE_WINDOW", 1*time.Minute),
			CacheTTL:   getEnvAsDuration("SCAMWATCH_CACHE_TTL", 5*time.Minute),
			CacheSize:  getEnvAsInt("SCAMWATCH_CACHE_SIZE", 50),
		},
		Safety: SafetyConfig{
			DocumentTTL:   getEnvAsDuration("SAFETY_DOCUMENT_TTL", 5*time.Minute),
			CacheSize:     getEnvAsInt("SAFETY_CACHE_SIZE", 50),
			EventsSubject: getEnv("SAFETY_EVENTS_SUBJECT", "safety.updated"),
		},
		Tracker: TrackerConfig{
			TTL:             getEnvAsDuration("TRACKER_TTL", 5*time.Minute),
			MoveThresholdKm: getEnvAsFloat("TRACKER_MOVE_THRESHOLD_KM", 5.0),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Assessor.APIKey == "" && config.Environment != "development" {
		return fmt.Errorf("assessor API key must be set in non-development environments")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
