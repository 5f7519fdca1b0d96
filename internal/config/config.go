package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "token", "password",
}

const (
	StoreDriverSQLite   = "sqlite3"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Port                     int      `env:"PORT" envDefault:"8080"`
	SessionDir               string   `env:"SESSION_DIR" envDefault:"./session"`
	AllowedOrigins           []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	APIToken                 string   `env:"API_TOKEN,required"`
	LogLevel                 string   `env:"LOG_LEVEL" envDefault:"info"`
	ReconnectDelaySeconds    int      `env:"RECONNECT_DELAY_SECONDS" envDefault:"5"`
	MediaFetchTimeoutSeconds int      `env:"MEDIA_FETCH_TIMEOUT_SECONDS" envDefault:"30"`
	SessionStoreDriver       string   `env:"SESSION_STORE_DRIVER" envDefault:"sqlite3"`
	DatabaseURL              string   `env:"DATABASE_URL"`
	RedisURL                 string   `env:"REDIS_URL"`
	RateLimitPerMin          int      `env:"RATE_LIMIT_PER_MIN" envDefault:"60"`
	ServiceName              string   `env:"SERVICE_NAME" envDefault:"wa-gateway"`
	ServiceVersion           string   `env:"SERVICE_VERSION" envDefault:"1.0.0"`
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

func (c *Config) MediaFetchTimeout() time.Duration {
	return time.Duration(c.MediaFetchTimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Origins returns the configured allow-list with blanks and surrounding
// whitespace removed.
func (c *Config) Origins() []string {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Validate(isProduction bool) error {
	switch c.SessionStoreDriver {
	case StoreDriverSQLite:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE_DRIVER=%s", StoreDriverPostgres)
		}
	default:
		return fmt.Errorf("SESSION_STORE_DRIVER must be %q or %q, got %q",
			StoreDriverSQLite, StoreDriverPostgres, c.SessionStoreDriver)
	}

	if c.ReconnectDelaySeconds <= 0 {
		return fmt.Errorf("RECONNECT_DELAY_SECONDS must be positive")
	}

	if isProduction {
		if err := validateSecret("API_TOKEN", c.APIToken); err != nil {
			return err
		}
		if len(c.Origins()) == 0 {
			log.Warn().Msg("ALLOWED_ORIGINS is empty in production: browser clients will be rejected")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
