package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "tradedesk.db", cfg.DB.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Drafts.Retention)
	assert.Equal(t, "0 3 * * *", cfg.Drafts.SweepSpec)
	assert.Equal(t, 10*time.Minute, cfg.Lookups.StaleAfter)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
app:
  env: production
server:
  port: "9090"
drafts:
  retention: 720h
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Drafts.Retention)
	// Untouched sections keep their defaults
	assert.Equal(t, "tradedesk.db", cfg.DB.Path)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TRADEDESK_SERVER_PORT", "7070")
	t.Setenv("TRADEDESK_AUTH_JWT_SECRET", "env-secret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}
