// Package config loads application configuration from environment
// variables, with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the application. All fields are
// read once at startup; nothing mutates them afterwards.
type Config struct {
	// Env is one of development, staging, production.
	Env string
	// Port is the HTTP API listen port.
	Port int

	LogLevel  string
	LogFormat string

	// DataDir holds one CSV bar history per instrument.
	DataDir string
	// OutputDir is the root under which scan artifacts are written.
	OutputDir string
	// NamesFile is the code-to-name lookup CSV.
	NamesFile string
	// ProfileFile optionally overrides the built-in profiles with a
	// YAML profile definition.
	ProfileFile string
	// Workers sizes the scan pool. Zero lets the scanner decide from
	// the CPU count.
	Workers int

	// HistoryDB is the SQLite file recording past runs.
	HistoryDB string

	// EastmoneyBaseURL is the quote service used to refresh the name
	// table.
	EastmoneyBaseURL string
	HTTPTimeout      time.Duration
}

// Load reads the configuration from the environment. A .env file in the
// working directory or a parent is applied first when present.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:              getEnv("ENV", "development"),
		Port:             getEnvAsInt("PORT", 8087),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "console"),
		DataDir:          getEnv("SCAN_DATA_DIR", "./stock_data"),
		OutputDir:        getEnv("SCAN_OUTPUT_DIR", "./output"),
		NamesFile:        getEnv("SCAN_NAMES_FILE", "./stock_names.csv"),
		ProfileFile:      getEnv("SCAN_PROFILE_FILE", ""),
		Workers:          getEnvAsInt("SCAN_WORKERS", 0),
		HistoryDB:        getEnv("HISTORY_DB_PATH", "./fupan_history.db"),
		EastmoneyBaseURL: getEnv("EASTMONEY_BASE_URL", "https://push2.eastmoney.com"),
		HTTPTimeout:      getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid ENV %q", c.Env)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.Workers < 0 {
		return fmt.Errorf("SCAN_WORKERS must not be negative, got %d", c.Workers)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether the app runs with development settings.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// loadEnvFile applies the first .env found walking up from the working
// directory. Missing files are fine; the environment wins over the file.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
