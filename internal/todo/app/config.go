package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/todoauth/pkg/httpx"
	"github.com/aussiebroadwan/todoauth/pkg/jwtx"
)

// DefaultJWTSecret is used when JWT_SECRET is unset. Fine for a laptop,
// never for anything else; New logs a warning when it is in effect.
const DefaultJWTSecret = "secret"

// User store backends.
const (
	UserStoreMemory = "memory"
	UserStoreSQLite = "sqlite"
)

type Config struct {
	JWTSecret         string        // HS256 secret shared by access and refresh tokens
	SecretFromDefault bool          // True when JWTSecret fell back to DefaultJWTSecret
	AccessTokenTTL    time.Duration // Access token lifetime (default: 5s)
	RefreshTokenTTL   time.Duration // Refresh token and registry entry lifetime (default: 7 days)
	Port              int           // HTTP server port (default: 3000)
	CORSOrigin        string        // Browser origin allowed to call with credentials (default: http://localhost:8080)
	CookieSecure      bool          // Mark the refresh cookie Secure (default: false)
	UserStore         string        // memory or sqlite (default: memory)
	DatabaseFile      string        // SQLite file when UserStore is sqlite (default: todoauth.db)
	PasswordPepper    string        // Appended to passwords before hashing
	SeedDemoUsers     bool          // Seed sally and jane on startup (default: true)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Registry sweep interval (default: 1h)

	LoginLimit   httpx.RateLimitConfig // Password attempts per IP
	RequestLimit httpx.RateLimitConfig // All GraphQL traffic per IP
}

func LoadConfig() Config {
	cfg := Config{
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getTokenTTLOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL: getTokenTTLOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),
		Port:            getEnvIntOrDefault("PORT", 3000),
		CORSOrigin:      getEnvOrDefault("CORS_ORIGIN", "http://localhost:8080"),
		CookieSecure:    getEnvBoolOrDefault("COOKIE_SECURE", false),
		UserStore:       strings.ToLower(getEnvOrDefault("USER_STORE", UserStoreMemory)),
		DatabaseFile:    getEnvOrDefault("DATABASE_FILE", "todoauth.db"),
		PasswordPepper:  os.Getenv("PASSWORD_PEPPER"),
		SeedDemoUsers:   getEnvBoolOrDefault("SEED_DEMO_USERS", true),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),

		LoginLimit:   httpx.ParseRateLimitFromEnv("STRICT", httpx.StrictLimit),
		RequestLimit: httpx.ParseRateLimitFromEnv("LENIENT", httpx.LenientLimit),
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = DefaultJWTSecret
		cfg.SecretFromDefault = true
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getTokenTTLOrDefault is getEnvDurationOrDefault for token lifetimes, which
// must be at least jwtx.MinTTL.
func getTokenTTLOrDefault(key string, defaultValue time.Duration) time.Duration {
	ttl := getEnvDurationOrDefault(key, defaultValue)
	if ttl < jwtx.MinTTL {
		return defaultValue
	}
	return ttl
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
