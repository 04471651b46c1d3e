package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("TOKEN_TTL", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.TokenTTL)
}

func TestLoadConfig_BadTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate_ProductionRequiresRealSecret(t *testing.T) {
	t.Setenv("ENV", "production")

	_, err := LoadConfig()
	assert.Error(t, err, "production boot must not run on the development secret")

	t.Setenv("JWT_SECRET", "an-actual-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
}
