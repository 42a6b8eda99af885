package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/carenethq/carenet/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "carenet", cfg.Database.Postgres.Database)

	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.example.com:6380", cfg.Cache.Redis.Address)
	require.Equal(t, 2, cfg.Cache.Redis.DB)
	require.Equal(t, 2*time.Second, cfg.Cache.Redis.Timeout)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "carenet-test", cfg.Auth.JWT.Issuer)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 1440*time.Hour, cfg.Auth.Session.RefreshTTL)
	require.Equal(t, 64, cfg.Auth.Session.RefreshLength)
	require.Equal(t, 7, cfg.Auth.Lockout.MaxAttempts)
	require.Equal(t, 20*time.Minute, cfg.Auth.Lockout.Window)

	require.Equal(t, []string{"/healthz"}, cfg.Gateway.PublicPaths)
	require.Equal(t, 40, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)

	require.Equal(t, 30, cfg.Maintenance.AuditRetentionDays)
	require.Equal(t, "@every 30m", cfg.Maintenance.SessionSchedule)
	// untouched keys keep their defaults
	require.Equal(t, "@daily", cfg.Maintenance.AuditSchedule)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, 100, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.Equal(t, 90, cfg.Maintenance.AuditRetentionDays)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{}

	jwtCfg := cfg.JWTServiceConfig()
	require.Equal(t, auth.DefaultAccessTokenTTL, jwtCfg.AccessTokenTTL)

	sessionCfg := cfg.SessionServiceConfig()
	require.Equal(t, auth.DefaultRefreshTokenTTL, sessionCfg.RefreshTokenTTL)
	require.Equal(t, 48, sessionCfg.RefreshLength)

	limiterCfg := cfg.AttemptLimiterConfig()
	require.Equal(t, auth.DefaultMaxLoginAttempts, limiterCfg.MaxAttempts)
	require.Equal(t, auth.DefaultLoginAttemptWindow, limiterCfg.Window)
}

func TestDatabaseOpenConfigSelectsDriverHost(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "postgres",
		Postgres: DBAuthConfig{Host: "pg.internal", Port: 5432, Database: "carenet", Username: "svc"},
		MySQL:    DBAuthConfig{Host: "mysql.internal"},
	}

	open := cfg.DatabaseOpenConfig()
	require.Equal(t, "postgres", open.Driver)
	require.Equal(t, "pg.internal", open.Host)
	require.Equal(t, "carenet", open.Name)

	cfg.Driver = "mysql"
	open = cfg.DatabaseOpenConfig()
	require.Equal(t, "mysql.internal", open.Host)
}
