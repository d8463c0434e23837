package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFiles    = "files"
	BackendRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Catalog    CatalogConfig
	ShortFilms ShortFilmsConfig
	CORS       CORSConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and configures the durable key-value backend.
type StorageConfig struct {
	Backend        string
	DatabaseURL    string
	DatabaseDriver string // pgx or postgres (lib/pq)
	SQLitePath     string
	Dir            string
	RedisURL       string
	RedisPrefix    string
}

// CatalogConfig holds TMDB client settings.
type CatalogConfig struct {
	APIKey       string
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Language     string
	RateLimit    float64 // requests per second, 0 disables pacing
	Timeout      time.Duration
}

// ShortFilmsConfig holds short film collection settings.
type ShortFilmsConfig struct {
	Seed bool
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	File   string
}

// Load reads configuration from environment variables, after applying any .env files found.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	cfg := &Config{}

	if err := cfg.loadServer(); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	cfg.loadStorage()
	if err := cfg.loadCatalog(); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.loadShortFilms(); err != nil {
		return nil, fmt.Errorf("load short films config: %w", err)
	}
	cfg.loadCORS()
	cfg.loadLogging()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadServer() error {
	port, err := cast.ToIntE(getEnvOrDefault("PORT", "8080"))
	if err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	c.Server.Port = port
	c.Server.Host = getEnvOrDefault("HOST", "0.0.0.0")
	return nil
}

func (c *Config) loadStorage() {
	c.Storage.Backend = strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", BackendSQLite))
	c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	c.Storage.DatabaseDriver = getEnvOrDefault("DATABASE_DRIVER", "pgx")
	c.Storage.SQLitePath = getEnvOrDefault("SQLITE_PATH", "data/cinetrack.db")
	c.Storage.Dir = getEnvOrDefault("STORAGE_DIR", "data/storage")
	c.Storage.RedisURL = getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0")
	c.Storage.RedisPrefix = getEnvOrDefault("REDIS_PREFIX", "cinetrack:")
}

func (c *Config) loadCatalog() error {
	c.Catalog.APIKey = os.Getenv("TMDB_API_KEY")
	c.Catalog.ReadToken = os.Getenv("TMDB_READ_TOKEN")
	c.Catalog.BaseURL = getEnvOrDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	c.Catalog.ImageBaseURL = getEnvOrDefault("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p")
	c.Catalog.Language = getEnvOrDefault("TMDB_LANGUAGE", "tr-TR")

	rateLimit, err := cast.ToFloat64E(getEnvOrDefault("TMDB_RATE_LIMIT", "40"))
	if err != nil {
		return fmt.Errorf("invalid TMDB_RATE_LIMIT: %w", err)
	}
	c.Catalog.RateLimit = rateLimit

	timeout, err := cast.ToIntE(getEnvOrDefault("TMDB_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return fmt.Errorf("invalid TMDB_TIMEOUT_SECONDS: %w", err)
	}
	c.Catalog.Timeout = time.Duration(timeout) * time.Second
	return nil
}

func (c *Config) loadShortFilms() error {
	seed, err := cast.ToBoolE(getEnvOrDefault("SHORT_FILMS_SEED", "true"))
	if err != nil {
		return fmt.Errorf("invalid SHORT_FILMS_SEED: %w", err)
	}
	c.ShortFilms.Seed = seed
	return nil
}

func (c *Config) loadCORS() {
	originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	if originsEnv != "" {
		var origins []string
		for _, origin := range strings.Split(originsEnv, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		c.CORS.AllowedOrigins = origins
	} else {
		// Default for local development
		c.CORS.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
}

func (c *Config) loadLogging() {
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", "info")
	c.Logging.Format = getEnvOrDefault("LOG_FORMAT", "json")
	c.Logging.File = os.Getenv("LOG_FILE")
}

// Validate checks that all required configuration is present and valid
func (c *Config) Validate() error {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, "PORT must be between 1 and 65535")
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required for the postgres backend")
		}
		if c.Storage.DatabaseDriver != "pgx" && c.Storage.DatabaseDriver != "postgres" {
			errors = append(errors, "DATABASE_DRIVER must be one of: pgx, postgres")
		}
	case BackendFiles:
		if c.Storage.Dir == "" {
			errors = append(errors, "STORAGE_DIR is required for the files backend")
		}
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			errors = append(errors, "REDIS_URL is required for the redis backend")
		}
	default:
		errors = append(errors, "STORAGE_BACKEND must be one of: memory, sqlite, postgres, files, redis")
	}

	if c.Catalog.APIKey == "" && c.Catalog.ReadToken == "" {
		errors = append(errors, "TMDB_API_KEY or TMDB_READ_TOKEN is required")
	}
	if c.Catalog.RateLimit < 0 {
		errors = append(errors, "TMDB_RATE_LIMIT must not be negative")
	}
	if c.Catalog.Timeout <= 0 {
		errors = append(errors, "TMDB_TIMEOUT_SECONDS must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		errors = append(errors, "LOG_LEVEL must be one of: debug, info, warn, error")
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		errors = append(errors, "LOG_FORMAT must be one of: json, text")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
