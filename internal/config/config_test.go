package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("CMSEARCH_DATABASE_URL", "postgres://localhost/cms")
	t.Setenv("CMSEARCH_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("CMSEARCH_SEARCH_MAX_LIMIT", "250")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "postgres://localhost/cms", cfg.Database.URL)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.Equal(t, 250, cfg.Search.MaxLimit)
}

func TestLoad_ConfigFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
app:
  port: "9090"
  env: production
database:
  url: postgres://file/cms
  statement_timeout: 5s
auth:
  jwt_secret: from-file
search:
  default_limit: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("CMSEARCH_APP_PORT", "7070")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port)
	assert.False(t, cfg.App.IsDevelopment())
	assert.Equal(t, "postgres://file/cms", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("CMSEARCH_DATABASE_URL", "")
	t.Setenv("CMSEARCH_AUTH_JWT_SECRET", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
}

func TestValidate_Limits(t *testing.T) {
	cfg := Config{
		Database: DatabaseConfig{URL: "x", MaxConns: 1, MinConns: 2},
		Auth:     AuthConfig{JWTSecret: "x"},
		Search:   SearchConfig{DefaultLimit: 50, MaxLimit: 10},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.max_limit")
	assert.Contains(t, err.Error(), "database.min_conns")
}
