package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/giveback")
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_AUTO_MIGRATE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, ":8081", cfg.HTTPAddr)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, []byte(devSecret), cfg.JWTSecret)
	require.Equal(t, 10, cfg.LoginRatePerMin)
}

func TestFromEnvRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvProdRequiresSecret(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/giveback")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := FromEnv()
	require.NoError(t, err)
	require.True(t, cfg.IsProd())
	require.Equal(t, []byte("s3cret"), cfg.JWTSecret)
}

func TestFromEnvParsesFlags(t *testing.T) {
	t.Setenv("DB_DSN", "file.db")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	t.Setenv("TEMPLATE_WATCH", "1")
	t.Setenv("LOGIN_RATE_PER_MIN", "bogus")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.False(t, cfg.AutoMigrate)
	require.True(t, cfg.TemplateWatch)
	require.Equal(t, 10, cfg.LoginRatePerMin)

	t.Setenv("DB_DRIVER", "mysql")
	_, err = FromEnv()
	require.Error(t, err)
}
