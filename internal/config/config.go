package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration: the HTTP API endpoint, logging,
// and the optional Redis endpoint backing the variable store. An empty
// Redis address selects the in-process store
type Config struct {
	APIHost  string
	APIPort  int
	LogLevel string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	ShutdownTimeout time.Duration
}

const (
	DefaultAPIHost = "0.0.0.0"
	DefaultAPIPort = 8080
	MaxTCPPort     = 65535

	DefaultRedisDB     = 0
	MaxRedisDB         = 15
	DefaultRedisPrefix = "weir"

	DefaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidAPIPort = errors.New("invalid API port")
	ErrInvalidRedisDB = errors.New("invalid Redis DB")
	ErrEnvNotInteger  = errors.New("environment variable is not an integer")
	ErrEnvOutOfRange  = errors.New("environment variable out of range")
)

// NewDefaultConfig creates a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:         DefaultAPIHost,
		APIPort:         DefaultAPIPort,
		LogLevel:        "info",
		RedisDB:         DefaultRedisDB,
		RedisPrefix:     DefaultRedisPrefix,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		c.RedisAddr = redisAddr
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.RedisPassword = redisPassword
	}
	if redisPrefix := os.Getenv("REDIS_PREFIX"); redisPrefix != "" {
		c.RedisPrefix = redisPrefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.RedisDB, 0, MaxRedisDB); err != nil {
		return err
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.RedisDB < 0 || c.RedisDB > MaxRedisDB {
		return fmt.Errorf("%w: %d", ErrInvalidRedisDB, c.RedisDB)
	}
	return nil
}

func loadEnvInt(name string, target *int, min, max int) error {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrEnvNotInteger, name, raw)
	}
	if value < min || value > max {
		return fmt.Errorf("%w: %s=%d", ErrEnvOutOfRange, name, value)
	}
	*target = value
	return nil
}
