// Package config loads and validates server configuration from the
// environment. A .env file, when present, is applied by main before Load
// runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreFile     = "file"
	StoreMemory   = "memory"
)

// Config holds everything the server needs to start.
type Config struct {
	Port int `validate:"gte=1,lte=65535"`

	// StoreBackend selects the document store: postgres (default), file, or
	// memory (tests and demos only).
	StoreBackend string `validate:"oneof=postgres file memory"`
	DatabaseURL  string `validate:"required_if=StoreBackend postgres"`
	FileStoreDir string `validate:"required_if=StoreBackend file"`

	GeminiAPIKey string `validate:"required"`
	JWTSecret    string `validate:"required,min=16"`

	// WebhookSecret authenticates the payment provider's notifications.
	WebhookSecret string `validate:"required"`

	// RedisURL, when set, switches staleness markers to the session-style
	// Redis store instead of the document field.
	RedisURL  string
	MarkerTTL time.Duration

	// KafkaBrokers, when non-empty, enables domain event publishing.
	KafkaBrokers []string
	KafkaTopic   string

	StoreTimeout time.Duration `validate:"gt=0"`
	LLMTimeout   time.Duration `validate:"gt=0"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          envInt("PORT", 8080),
		StoreBackend:  envString("STORE_BACKEND", StorePostgres),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		FileStoreDir:  os.Getenv("FILE_STORE_DIR"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		WebhookSecret: os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		RedisURL:      os.Getenv("REDIS_URL"),
		MarkerTTL:     envDuration("STALENESS_MARKER_TTL", 24*time.Hour),
		KafkaTopic:    envString("KAFKA_TOPIC", "adwriter.events"),
		StoreTimeout:  envDuration("STORE_TIMEOUT", 5*time.Second),
		LLMTimeout:    envDuration("LLM_TIMEOUT", 60*time.Second),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
