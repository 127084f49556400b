package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/picking")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "Sheet1", cfg.Store.Worksheet)
	assert.Equal(t, 2*time.Hour, cfg.Batch.TTL)
	assert.Equal(t, int64(20<<20), cfg.Batch.MaxUploadSize)
	assert.Equal(t, 24*time.Hour, cfg.Archive.Interval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/picking")
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BATCH_TTL", "15m")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 15*time.Minute, cfg.Batch.TTL)
	assert.Equal(t, 8*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_BACKEND", "memory")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_SheetsNeedsCredentials(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/picking")
	t.Setenv("STORE_BACKEND", "sheets")
	t.Setenv("SHEETS_SPREADSHEET_ID", "abc")
	t.Setenv("GCP_JSON", "")

	_, err := Load()
	assert.ErrorContains(t, err, "GCP_JSON")
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/picking")
	t.Setenv("STORE_BACKEND", "excel")

	_, err := Load()
	assert.ErrorContains(t, err, "excel")
}

func TestNewLogger_RejectsBadLevel(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)

	logger, err := NewLogger(LogConfig{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
