package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADDR", "")
	t.Setenv("SESSION_LIFETIME", "")
	t.Setenv("ROUND_SPACING", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("R2_ACCOUNT_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, time.Hour, cfg.RoundSpacing)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.R2.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("ROUND_SPACING", "45m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://arena.gg, https://admin.arena.gg ,")
	t.Setenv("DISCORD_KEY", "key")
	t.Setenv("DISCORD_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 45*time.Minute, cfg.RoundSpacing)
	assert.Equal(t, []string{"https://arena.gg", "https://admin.arena.gg"}, cfg.CORSOrigins)
	assert.True(t, cfg.Discord.Enabled())
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Setenv("SESSION_LIFETIME", "forever")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SESSION_LIFETIME", "")
	t.Setenv("ROUND_SPACING", "-5m")
	_, err = Load()
	assert.Error(t, err)
}
