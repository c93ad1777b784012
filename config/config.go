package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string // default: 3001

	// Database
	PostgresDSN string

	// Cache
	RedisAddr string

	// Generation provider
	AnthropicAPIKey string
	Model           string  // default: claude-haiku-4-5-20251001
	PriceInputUSD   float64 // USD per 1M input tokens
	PriceOutputUSD  float64 // USD per 1M output tokens
	GenerateTimeout time.Duration

	// Quota / abuse control
	DailyLimit int   // base daily generations per identity/IP, default: 3
	BurstRPM   int64 // per-IP requests per minute, default: 10

	// Admin
	AdminToken string

	// Observability
	OTELExporterType     string  // "stdout" or "otlp"
	OTELExporterEndpoint string  // default: "localhost:4317"
	OTELSampleRatio      float64 // fraction of root traces sampled, 0..1
}

func Load() (*Config, error) {
	// Load .env file if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "3001"),
		PostgresDSN:          os.Getenv("POSTGRES_DSN"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		Model:                getEnv("GENERATION_MODEL", "claude-haiku-4-5-20251001"),
		AdminToken:           os.Getenv("ADMIN_TOKEN"),
		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "stdout"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
	}

	var err error
	if cfg.DailyLimit, err = getEnvInt("DAILY_LIMIT", 3); err != nil {
		return nil, err
	}

	burst, err := getEnvInt("BURST_RPM", 10)
	if err != nil {
		return nil, err
	}
	cfg.BurstRPM = int64(burst)

	timeoutSec, err := getEnvInt("GENERATE_TIMEOUT_SECONDS", 120)
	if err != nil {
		return nil, err
	}
	cfg.GenerateTimeout = time.Duration(timeoutSec) * time.Second

	if cfg.PriceInputUSD, err = getEnvFloat("PRICE_INPUT_PER_MTOK", 0.80); err != nil {
		return nil, err
	}
	if cfg.PriceOutputUSD, err = getEnvFloat("PRICE_OUTPUT_PER_MTOK", 4.00); err != nil {
		return nil, err
	}

	if cfg.OTELSampleRatio, err = getEnvFloat("OTEL_SAMPLE_RATIO", 1.0); err != nil {
		return nil, err
	}

	// Validation
	if cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.DailyLimit < 1 {
		return nil, fmt.Errorf("DAILY_LIMIT must be >= 1")
	}
	if cfg.OTELSampleRatio < 0 || cfg.OTELSampleRatio > 1 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATIO must be between 0 and 1")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
