package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config carries everything the collaborators need at startup. Upstream
// session values are injected here instead of being read from the environment
// at call sites.
type Config struct {
	MongoURI      string
	MongoDatabase string
	ServerPort    string
	LogLevel      string

	// Activision session cookies, extracted from a logged-in browser
	// session. All three are required for the protected endpoints.
	ActSSOCookie       string
	ActSSOCookieExpiry string
	ActToken           string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGODB_DATABASE", "warzone"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ActSSOCookie:       getEnv("ACT_SSO_COOKIE", ""),
		ActSSOCookieExpiry: getEnv("ACT_SSO_COOKIE_EXPIRY", ""),
		ActToken:           getEnv("ATKN", ""),
	}

	if cfg.ActSSOCookie == "" || cfg.ActToken == "" {
		return nil, fmt.Errorf("ACT_SSO_COOKIE and ATKN are required")
	}

	logger.Info().
		Str("mongo_database", cfg.MongoDatabase).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
