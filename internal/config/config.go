// Package config loads and validates server configuration from the environment
// and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iudanet/tokenauth/internal/server/middleware"
	"github.com/iudanet/tokenauth/internal/session"
)

// Storage drivers accepted in STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// SessionStoreRedis is the only alternative session store accepted in SESSION_STORE.
const SessionStoreRedis = "redis"

// Config holds server configuration.
type Config struct {
	// HTTPAddr is the listen address (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// StorageDriver selects the user and session store: sqlite, postgres or memory.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// SessionStore moves device sessions to another store. Empty keeps them
	// next to the users; "redis" uses REDIS_URL.
	SessionStore string `mapstructure:"SESSION_STORE"`
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string `mapstructure:"SQLITE_PATH"`
	// DatabaseURL is the Postgres DSN for the postgres driver.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the redis:// or rediss:// URL for SESSION_STORE=redis.
	RedisURL string `mapstructure:"REDIS_URL"`

	// SessionTTL is the lifetime of every issued token.
	SessionTTL time.Duration `mapstructure:"SESSION_TTL"`
	// TokenBytes is the random size of each token.
	TokenBytes int `mapstructure:"TOKEN_BYTES"`
	// MaxDevices caps sessions per user; 0 disables the cap.
	MaxDevices int `mapstructure:"MAX_DEVICES"`
	// SweepInterval is the expired-session cleanup period; 0 disables it.
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	// StoreTimeout bounds each token swap.
	StoreTimeout time.Duration `mapstructure:"STORE_TIMEOUT"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// LogFormat is text or json.
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// CORSOrigins lists allowed origins (comma separated); "*" allows any.
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`
	// AuthRateLimit is the number of sign-up/sign-in attempts per IP per AuthRateWindow.
	AuthRateLimit int `mapstructure:"AUTH_RATE_LIMIT"`
	// AuthRateWindow is the rate limit window.
	AuthRateWindow time.Duration `mapstructure:"AUTH_RATE_WINDOW"`
	// TrustedProxies lists proxy IPs or CIDRs (comma separated) whose
	// X-Forwarded-For and X-Real-IP headers name the client. Empty keys
	// rate limits on the connection address.
	TrustedProxies []string `mapstructure:"TRUSTED_PROXIES"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// Load reads configFile (".env" when empty; a missing file is ignored), then
// the environment, which overrides the file. The result is validated.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile == "" {
		configFile = ".env"
		v.SetConfigType("env")
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil && configFile != ".env" {
		return nil, fmt.Errorf("config: failed to read %s: %w", configFile, err)
	}

	v.AutomaticEnv()

	defaults := session.DefaultConfig()
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("STORAGE_DRIVER", DriverSQLite)
	v.SetDefault("SESSION_STORE", "")
	v.SetDefault("SQLITE_PATH", "tokenauth.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("SESSION_TTL", defaults.SessionTTL)
	v.SetDefault("TOKEN_BYTES", defaults.TokenBytes)
	v.SetDefault("MAX_DEVICES", defaults.MaxDevices)
	v.SetDefault("SWEEP_INTERVAL", defaults.SweepInterval)
	v.SetDefault("STORE_TIMEOUT", defaults.StoreTimeout)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CORS_ORIGINS", []string{})
	v.SetDefault("AUTH_RATE_LIMIT", 10)
	v.SetDefault("AUTH_RATE_WINDOW", time.Minute)
	v.SetDefault("TRUSTED_PROXIES", []string{})
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins)
	cfg.TrustedProxies = splitList(cfg.TrustedProxies)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}

	switch c.StorageDriver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("config: SQLITE_PATH must be set for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.SessionStore {
	case "":
	case SessionStoreRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL must be set when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("config: unknown SESSION_STORE %q", c.SessionStore)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.AuthRateLimit < 0 {
		return errors.New("config: AUTH_RATE_LIMIT must not be negative")
	}
	if c.AuthRateLimit > 0 && c.AuthRateWindow <= 0 {
		return errors.New("config: AUTH_RATE_WINDOW must be positive")
	}
	if _, err := middleware.ParseTrustedProxies(c.TrustedProxies); err != nil {
		return fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
	}

	if err := c.Session().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// Session returns the session core configuration.
func (c *Config) Session() session.Config {
	return session.Config{
		SessionTTL:    c.SessionTTL,
		TokenBytes:    c.TokenBytes,
		MaxDevices:    c.MaxDevices,
		StoreTimeout:  c.StoreTimeout,
		SweepInterval: c.SweepInterval,
	}
}

// splitList flattens "a, b" entries that arrive as a single env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
