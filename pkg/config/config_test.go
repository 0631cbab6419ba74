package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 8081, cfg.HTTP.WSPort)
	assert.Equal(t, "@every 5m", cfg.Sync.PermissionCron)
	assert.Equal(t, 0, cfg.Auth.MaxLoginAttempts, "lockout disabled by default")
	assert.Equal(t, time.UTC, cfg.App.Location())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_URL", "redis://localhost:6379/1")
	t.Setenv("TIMEZONE", "Asia/Shanghai")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.URL)
	assert.Equal(t, "Asia/Shanghai", cfg.App.Location().String())
}

func TestLoad_ProduccionSinSecretFalla(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestCacheTTL_NuncaSuperaCincoMinutos(t *testing.T) {
	assert.Equal(t, 5*time.Minute, CacheConfig{TTLSeconds: 3600}.TTL())
	assert.Equal(t, 30*time.Second, CacheConfig{TTLSeconds: 30}.TTL())
	assert.Equal(t, 5*time.Minute, CacheConfig{}.TTL())
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss/w", DBName: "k", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%2Fw@db:5432/k?sslmode=disable", c.ConnectionString())
}
