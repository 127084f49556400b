package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSheets   = "sheets"
)

type Config struct {
	Server  ServerConfig
	DB      DatabaseConfig
	Store   StoreConfig
	Auth    AuthConfig
	Batch   BatchConfig
	Archive ArchiveConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	URL string
}

// StoreConfig selects where accepted picking rows live.
type StoreConfig struct {
	Backend       string
	SpreadsheetID string
	Worksheet     string
	// CredentialsJSON is a Google service account key.
	CredentialsJSON string
}

type AuthConfig struct {
	AdminUsername     string
	AdminPasswordHash string
	SessionTTL        time.Duration
	CookieSecure      bool
}

type BatchConfig struct {
	TTL           time.Duration
	MaxUploadSize int64
}

type ArchiveConfig struct {
	Interval time.Duration
}

type LogConfig struct {
	Level string
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvOrDefault("PORT", "8080"),
			GinMode:     getEnvOrDefault("GIN_MODE", "release"),
			CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
		},
		DB: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreSheets)),
			SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
			Worksheet:       getEnvOrDefault("SHEETS_WORKSHEET", "Sheet1"),
			CredentialsJSON: os.Getenv("GCP_JSON"),
		},
		Auth: AuthConfig{
			AdminUsername:     getEnvOrDefault("ADMIN_USERNAME", "admin"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			SessionTTL:        getEnvDurationOrDefault("SESSION_TTL", 8*time.Hour),
			CookieSecure:      getEnvBoolOrDefault("COOKIE_SECURE", true),
		},
		Batch: BatchConfig{
			TTL:           getEnvDurationOrDefault("BATCH_TTL", 2*time.Hour),
			MaxUploadSize: int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 20)) << 20,
		},
		Archive: ArchiveConfig{
			Interval: getEnvDurationOrDefault("ARCHIVE_INTERVAL", 24*time.Hour),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.Store.Backend {
	case StoreMemory, StorePostgres:
	case StoreSheets:
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("SHEETS_SPREADSHEET_ID is required for the sheets store")
		}
		if c.Store.CredentialsJSON == "" {
			return fmt.Errorf("GCP_JSON is required for the sheets store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	if c.Batch.TTL <= 0 {
		return fmt.Errorf("BATCH_TTL must be positive")
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
