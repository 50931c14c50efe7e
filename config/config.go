package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server configuration
	Environment string
	PublicURL   string

	// Redis configuration
	RedisEnabled  bool
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Realtime configuration
	RealtimeChannel string

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUserID       string

	// Client behaviour
	SearchDebounce time.Duration

	// Rate limiting
	MessageRateLimit int
	RateLimitWindow  time.Duration
	AntiBotEnabled   bool
	AntiBotRateLimit int

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when one exists.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: reading .env failed", "error", err)
	}

	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://127.0.0.1:8090"),

		// Redis
		RedisEnabled:  getEnvAsBool("REDIS_ENABLED", true),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Realtime
		RealtimeChannel: getEnv("REALTIME_CHANNEL", "support:changes"),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", ""),

		// Client
		SearchDebounce: getEnvAsDuration("SEARCH_DEBOUNCE", "300ms"),

		// Rate limiting
		MessageRateLimit: getEnvAsInt("MESSAGE_RATE_LIMIT", 30),
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		AntiBotEnabled:   getEnvAsBool("ANTI_BOT_ENABLED", false),
		AntiBotRateLimit: getEnvAsInt("ANTI_BOT_RATE_LIMIT", 120),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// PubNubEnabled reports whether push hints can be published.
func (c *Config) PubNubEnabled() bool {
	return c.PubNubPublishKey != "" && c.PubNubSubscribeKey != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
