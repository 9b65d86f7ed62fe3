package config

import (
	"os"
	"strconv"
)

// Config holds the runtime configuration for the server, populated from the
// environment. godotenv loads .env before this is read.
type Config struct {
	Port        string
	Environment string
	LogLevel    string
	LogFile     string

	JWTSecret string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisEnabled  bool

	CORSOrigins []string

	FeedPageSize int
}

// Load reads configuration from the environment with sensible defaults.
func Load() *Config {
	return &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "logs/server.log"),

		JWTSecret: getEnvOrDefault("JWT_SECRET", "dev-secret-change-me"),

		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),

		CORSOrigins: []string{
			getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		},

		FeedPageSize: getEnvInt("FEED_PAGE_SIZE", 20),
	}
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
