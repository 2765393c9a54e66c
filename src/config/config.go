package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./ledger.db"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// Report cache
	ReportCacheTTL     time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`
	ReportCacheCleanup time.Duration `env:"REPORT_CACHE_CLEANUP" envDefault:"10m"`

	// Rate limiting: one token every RateLimitInterval, bursting to RateLimitBurst.
	RateLimitInterval time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"100ms"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"30"`

	// CORS
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// HTTP server
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig loads configuration from environment variables or a .env file.
// Variables already present in the environment win over the .env file.
func LoadConfig() (*AppConfig, error) {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RateLimit=%s/%d",
		cfg.Port, cfg.LogLevel, cfg.DatabasePath, cfg.RateLimitInterval, cfg.RateLimitBurst)
	return cfg, nil
}

// Parse reads AppConfig from the process environment only.
func Parse() (*AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", cfg.RateLimitBurst)
	}
	if cfg.RateLimitInterval <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_INTERVAL must be positive, got %s", cfg.RateLimitInterval)
	}
	return &cfg, nil
}
