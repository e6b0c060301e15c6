package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weirlabs/weir/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()

	assert.Equal(t, config.DefaultAPIHost, cfg.APIHost)
	assert.Equal(t, config.DefaultAPIPort, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, config.DefaultRedisPrefix, cfg.RedisPrefix)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_PREFIX", "staging")
	t.Setenv("REDIS_DB", "3")

	cfg := config.NewDefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "127.0.0.1", cfg.APIHost)
	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "hunter2", cfg.RedisPassword)
	assert.Equal(t, "staging", cfg.RedisPrefix)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadFromEnvNotInteger(t *testing.T) {
	t.Setenv("API_PORT", "eighty")

	cfg := config.NewDefaultConfig()
	assert.ErrorIs(t, cfg.LoadFromEnv(), config.ErrEnvNotInteger)
}

func TestLoadFromEnvOutOfRange(t *testing.T) {
	t.Setenv("REDIS_DB", "99")

	cfg := config.NewDefaultConfig()
	assert.ErrorIs(t, cfg.LoadFromEnv(), config.ErrEnvOutOfRange)
}

func TestValidate(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.APIPort = 0
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidAPIPort)

	cfg = config.NewDefaultConfig()
	cfg.RedisDB = -1
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidRedisDB)
}
