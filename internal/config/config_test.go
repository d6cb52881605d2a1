package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RejectsUnknownAppMode(t *testing.T) {
	t.Setenv("APP_MODE", "staging")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_PaypackSandboxCredentials(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("PAYPACK_MODE", "sandbox")
	t.Setenv("PAYPACK_CLIENT_ID", "live-id")
	t.Setenv("PAYPACK_CLIENT_SECRET", "live-secret")
	t.Setenv("PAYPACK_SANDBOX_CLIENT_ID", "sandbox-id")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.Paypack.Mode)
	assert.Equal(t, "sandbox-id", cfg.Paypack.ClientID)
	// no sandbox secret set, so the live one is used
	assert.Equal(t, "live-secret", cfg.Paypack.ClientSecret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 15*time.Minute, cfg.Verification.CodeLifetime)
	assert.Equal(t, "https://payments.paypack.rw/api", cfg.Paypack.BaseURL)
}

func TestBuildDialector_UnknownDriver(t *testing.T) {
	_, err := buildDialector(DatabaseConfig{Driver: "sqlite"})
	assert.Error(t, err)
}
