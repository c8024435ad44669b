package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Ensure clean env for this test.
	os.Clearenv()

	cfg := Load()
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "", cfg.DatabaseURL)
	require.Equal(t, "", cfg.JWTKey)
	require.Equal(t, 7*24*time.Hour, cfg.AccessTTL)
	require.Equal(t, 15*time.Minute, cfg.LoginWindow)
	require.Equal(t, 5, cfg.LoginMaxFails)
	require.Equal(t, 15*time.Minute, cfg.LoginBlockFor)
	require.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_OverridesAndInvalidValues(t *testing.T) {
	t.Cleanup(os.Clearenv)

	t.Run("valid overrides", func(t *testing.T) {
		os.Setenv("HTTP_ADDR", ":9999")
		os.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/notes?sslmode=disable")
		os.Setenv("JWT_KEY", "k")
		os.Setenv("ACCESS_TTL", "24h")
		os.Setenv("LOGIN_MAX_FAILS", "3")

		cfg := Load()
		require.Equal(t, ":9999", cfg.HTTPAddr)
		require.Equal(t, "postgres://u:p@localhost:5432/notes?sslmode=disable", cfg.DatabaseURL)
		require.Equal(t, "k", cfg.JWTKey)
		require.Equal(t, 24*time.Hour, cfg.AccessTTL)
		require.Equal(t, 3, cfg.LoginMaxFails)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		os.Clearenv()
		os.Setenv("ACCESS_TTL", "bad")
		os.Setenv("LOGIN_MAX_FAILS", "abc")

		cfg := Load()
		require.Equal(t, 7*24*time.Hour, cfg.AccessTTL)
		require.Equal(t, 5, cfg.LoginMaxFails)
	})
}
