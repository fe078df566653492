package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	DatabaseURL    string
	AdminJWTSecret string

	// SATUSEHAT platform credentials and endpoints
	SatuSehatAuthURL      string
	SatuSehatBaseURL      string
	SatuSehatClientID     string
	SatuSehatClientSecret string
	SatuSehatOrgID        string

	// Token cache TTL. Kept shorter than the provider's nominal 60-minute
	// token lifetime so a cached token never outlives the real one.
	TokenCacheTTL  time.Duration
	RequestTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		SatuSehatAuthURL:      getEnv("SATUSEHAT_AUTH_URL", ""),
		SatuSehatBaseURL:      getEnv("SATUSEHAT_BASE_URL", ""),
		SatuSehatClientID:     getEnv("SATUSEHAT_CLIENT_ID", ""),
		SatuSehatClientSecret: getEnv("SATUSEHAT_CLIENT_SECRET", ""),
		SatuSehatOrgID:        getEnv("SATUSEHAT_ORG_ID", ""),

		TokenCacheTTL:  getEnvAsDuration("SATUSEHAT_TOKEN_CACHE_TTL", 50*time.Minute),
		RequestTimeout: getEnvAsDuration("SATUSEHAT_REQUEST_TIMEOUT", 30*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, dropping
// empty entries.
func getEnvAsSlice(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
