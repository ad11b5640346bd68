package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/hrdesk/internal/hrdesk/session"
)

// Config is loaded from the environment. Client settings carry the HRDESK_
// prefix, logging settings are shared with the rest of the deployment.
type Config struct {
	API     APIConfig     `envPrefix:"HRDESK_"`
	Store   StoreConfig   `envPrefix:"HRDESK_"`
	Session SessionConfig `envPrefix:"HRDESK_"`

	Env       string `env:"ENV" envDefault:"dev"`         // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json, text
}

type APIConfig struct {
	URL string `env:"API_URL" envDefault:"http://localhost:5000"`

	// PushURL defaults to the notification hub on the API host.
	PushURL string `env:"PUSH_URL"`

	// ClientID is the push group provider logins are delivered to. A fresh
	// one is generated per process when empty.
	ClientID string `env:"AZURE_CLIENT_ID"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"0"` // 0 disables
}

type StoreConfig struct {
	Driver       string      `env:"STORE" envDefault:"sqlite"` // sqlite, redis, memory
	DatabaseFile string      `env:"DATABASE_FILE" envDefault:"hrdesk.db"`
	Redis        RedisConfig `envPrefix:"REDIS_"`

	// CacheKey seals the persisted tokens when set.
	CacheKey string `env:"CACHE_KEY"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type SessionConfig struct {
	InactivityTimeout       time.Duration `env:"INACTIVITY_TIMEOUT" envDefault:"15m"`
	InactivityCheckInterval time.Duration `env:"INACTIVITY_CHECK_INTERVAL" envDefault:"30s"`
	RefreshCheckInterval    time.Duration `env:"REFRESH_CHECK_INTERVAL" envDefault:"1m"`
	RefreshLeadTime         time.Duration `env:"REFRESH_LEAD_TIME" envDefault:"2m"`
}

func (c SessionConfig) manager() session.Config {
	return session.Config{
		InactivityTimeout:       c.InactivityTimeout,
		InactivityCheckInterval: c.InactivityCheckInterval,
		RefreshCheckInterval:    c.RefreshCheckInterval,
		RefreshLeadTime:         c.RefreshLeadTime,
	}
}

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}
	return parseConfig(env.Options{})
}

// LoadConfigFrom parses environment instead of the process environment.
func LoadConfigFrom(environment map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: environment})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Sanitize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Sanitize normalises values and fills the derived defaults.
func (c *Config) Sanitize() error {
	c.API.URL = strings.TrimSuffix(strings.TrimSpace(c.API.URL), "/")
	if c.API.URL == "" {
		return errors.New("config: HRDESK_API_URL is required")
	}

	if c.API.PushURL == "" {
		push, err := defaultPushURL(c.API.URL)
		if err != nil {
			return err
		}
		c.API.PushURL = push
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("config: unknown HRDESK_STORE %q (sqlite, redis, memory)", c.Store.Driver)
	}

	if c.API.RequestTimeout <= 0 {
		c.API.RequestTimeout = 15 * time.Second
	}
	if c.API.RateLimitRPS < 0 {
		c.API.RateLimitRPS = 0
	}
	return nil
}

// defaultPushURL maps http(s)://host/... to ws(s)://host/hubs/notifications.
func defaultPushURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("config: invalid HRDESK_API_URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("config: HRDESK_API_URL must be http or https, got %q", u.Scheme)
	}
	u.Path = "/hubs/notifications"
	u.RawQuery = ""
	return u.String(), nil
}
