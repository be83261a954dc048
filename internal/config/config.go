// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"angpao-ledger/pkg/db"
)

// Backend names for LEDGER_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort      string
	Backend         string
	UserID          string
	AuthToken       string
	DefaultCurrency string
	DB              db.Config
}

// LoadConfig loads configuration from environment variables, reading an
// optional .env file first. Missing values fall back to local-development
// defaults.
func LoadConfig() (*AppConfig, error) {
	// .env is optional; env vars already set win.
	_ = godotenv.Load()

	cfg := &AppConfig{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Backend:         getEnv("LEDGER_BACKEND", BackendPostgres),
		UserID:          getEnv("LEDGER_USER_ID", "local-user"),
		AuthToken:       getEnv("LEDGER_AUTH_TOKEN", ""),
		DefaultCurrency: getEnv("LEDGER_DEFAULT_CURRENCY", "USD"),
	}

	if cfg.Backend != BackendPostgres && cfg.Backend != BackendMemory {
		return nil, fmt.Errorf("invalid LEDGER_BACKEND %q", cfg.Backend)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.DB = db.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "user"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "angpaodb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
