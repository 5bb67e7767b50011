/**
 * @description
 * Configuration loader for the SuperPrecios backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if DATABASE_URL is missing.
 * - Uses a Singleton-like pattern where Load() returns a Config struct.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Redis   RedisConfig
	Ingest  IngestConfig
	Matcher MatcherConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// IngestConfig holds scraper feed ingestion settings
type IngestConfig struct {
	FeedDir        string        // directory where scraper runs drop their JSON feed files
	JobSecret      string        // shared secret guarding job-style endpoints (ingest, auto-detect)
	WorkerInterval time.Duration // how often cmd/worker re-ingests the feed directory
	AutoDetect     bool          // whether the worker runs automatic equivalence detection after ingesting
}

// MatcherConfig holds similarity matching settings
type MatcherConfig struct {
	Scorer        string // "token_sort" or "coverage"
	AutoThreshold int    // minimum similarity score (0-100) for automatic grouping
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Ingest: IngestConfig{
			FeedDir:        getEnv("FEED_DIR", "./feeds"),
			JobSecret:      getEnv("JOB_SYNC_SECRET", ""),
			WorkerInterval: time.Duration(getEnvAsInt("WORKER_INTERVAL_HOURS", 24)) * time.Hour,
			AutoDetect:     getEnv("WORKER_AUTO_DETECT", "false") == "true",
		},
		Matcher: MatcherConfig{
			Scorer:        getEnv("MATCH_SCORER", "token_sort"),
			AutoThreshold: getEnvAsInt("MATCH_AUTO_THRESHOLD", 85),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Matcher.AutoThreshold < 0 || cfg.Matcher.AutoThreshold > 100 {
		return fmt.Errorf("MATCH_AUTO_THRESHOLD must be between 0 and 100")
	}
	if cfg.Matcher.Scorer != "token_sort" && cfg.Matcher.Scorer != "coverage" {
		return fmt.Errorf("MATCH_SCORER must be \"token_sort\" or \"coverage\"")
	}
	if cfg.Ingest.JobSecret == "" && cfg.Server.Env != "test" {
		// Warning: job endpoints will reject every caller without it
		fmt.Println("Warning: JOB_SYNC_SECRET is missing. Job endpoints will be unusable.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
