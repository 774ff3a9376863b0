package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults for optional settings.
const (
	DefaultBaseURL   = "https://www.scripters.shop"
	DefaultDataDir   = "data/posts"
	DefaultSiteDir   = "site"
	DefaultLanguage  = "en"
	DefaultRateLimit = 20
)

// Config holds the application configuration.
type Config struct {
	AppEnv          string
	Debug           bool
	Version         string
	BotToken        string
	ChannelID       int64 // 0 accepts posts from every channel the bot is in
	BaseURL         string
	DataDir         string
	SiteDir         string
	SentryDSN       string
	MongoDBURI      string
	MongoDBDatabase string
	MetricsAddr     string
	DefaultLanguage string
	RateLimit       int
}

// Warnings lists non-fatal configuration findings worth logging at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ChannelID == 0 {
		warnings = append(warnings, "CHANNEL_ID is not set: posts from every channel are published and /generate is disabled")
	}
	if c.SentryDSN == "" {
		warnings = append(warnings, "SENTRY_DSN is not set: error tracking disabled")
	}
	return warnings
}

// LoadConfig loads configuration from environment variables.
// It attempts to load a .env file if present but prioritizes
// actual environment variables set in the system (e.g., by Docker).
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment alone.
func FromEnv() (*Config, error) {
	debug, err := strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEBUG: %w", err)
	}

	var channelID int64
	if channelIDStr := getEnv("CHANNEL_ID", ""); channelIDStr != "" {
		channelID, err = strconv.ParseInt(channelIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CHANNEL_ID: %w", err)
		}
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT", strconv.Itoa(DefaultRateLimit)))
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT: must be a positive integer")
	}

	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		Debug:           debug,
		Version:         getEnv("VERSION", "dev"),
		BotToken:        getEnv("BOT_TOKEN", getEnv("TELEGRAM_BOT_TOKEN", "")),
		ChannelID:       channelID,
		BaseURL:         getEnv("BASE_URL", DefaultBaseURL),
		DataDir:         getEnv("POSTS_DATA_DIR", DefaultDataDir),
		SiteDir:         getEnv("SITE_DIR", DefaultSiteDir),
		SentryDSN:       getEnv("SENTRY_DSN", ""),
		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", "scripters"),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", DefaultLanguage),
		RateLimit:       rateLimit,
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}
	if filepath.Clean(cfg.DataDir) == filepath.Clean(cfg.SiteDir) {
		return nil, fmt.Errorf("POSTS_DATA_DIR and SITE_DIR must differ")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
// A variable set to the empty string counts as unset.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
