package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "seller-users", cfg.App.Name)
	assert.Equal(t, "production", cfg.App.Environment)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "0.0.0.0:8081", cfg.Server.Addr)
	assert.Equal(t, "2.0", cfg.Server.PayloadFormat)
	assert.Equal(t, "data/users.db", cfg.Database.Path)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Auth.TrustBearer)
	assert.Empty(t, cfg.Snapshot.Bucket)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SELLERUSERS_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("SELLERUSERS_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("SELLERUSERS_LOG_LEVEL", "debug")
	t.Setenv("SELLERUSERS_AUTH_TRUSTBEARER", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Auth.TrustBearer)
}

func TestIsHosted(t *testing.T) {
	var cfg Config
	assert.False(t, cfg.IsHosted())

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "seller-users-api")
	assert.True(t, cfg.IsHosted())
}

func TestIsDevelopment(t *testing.T) {
	var cfg Config
	for _, env := range []string{"development", "dev", "local", "DEV"} {
		cfg.App.Environment = env
		assert.True(t, cfg.IsDevelopment(), env)
	}
	for _, env := range []string{"production", "prod", "staging", ""} {
		cfg.App.Environment = env
		assert.False(t, cfg.IsDevelopment(), env)
	}
}
