package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"-"`
	DBName     string `env:"DB_NAME" envDefault:"railwatch"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	ListenChannel   string `env:"LISTEN_CHANNEL" envDefault:"flagged_transactions"`
	HTTPAddr        string `env:"HTTP_ADDR" envDefault:":8080"`
	AssistantAPIURL string `env:"ASSISTANT_API_URL" envDefault:"http://localhost:8000"`
	RequestTimeout  int    `env:"REQUEST_TIMEOUT" envDefault:"30"` // seconds

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" envDefault:"-"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`

	AlertTTLSeconds int    `env:"ALERT_TTL_SECONDS" envDefault:"8"`
	FeedMaxEntries  int    `env:"FEED_MAX_ENTRIES" envDefault:"0"` // 0 = unbounded
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "railwatch")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.ListenChannel = getEnvWithDefault("LISTEN_CHANNEL", "flagged_transactions")
	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.AssistantAPIURL = getEnvWithDefault("ASSISTANT_API_URL", "http://localhost:8000")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.AlertTTLSeconds = getEnvIntWithDefault("ALERT_TTL_SECONDS", 8)
	cfg.FeedMaxEntries = getEnvIntWithDefault("FEED_MAX_ENTRIES", 0)
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
