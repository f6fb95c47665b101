package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DotEnvFile is loaded before the environment is parsed when it exists.
// Variables already set in the process environment are not overwritten.
var DotEnvFile = ".env"

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS"`
	BaseURL       string `env:"BASE_URL"`
	DatabaseDSN   string `env:"DATABASE_DSN"`
	JWTSecret     string `env:"JWT_SECRET"`
	RedisAddr     string `env:"REDIS_ADDR"`
	SentryDSN     string `env:"SENTRY_DSN"`

	LogLevel string `env:"LOG_LEVEL"`
	LogFile  string `env:"LOG_FILE"`

	SessionTTL        time.Duration `env:"SESSION_TTL"`
	ClickWorkers      int           `env:"CLICK_WORKERS"`
	ClickQueueSize    int           `env:"CLICK_QUEUE_SIZE"`
	ClickWriteTimeout time.Duration `env:"CLICK_WRITE_TIMEOUT"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

func ParseFlags() (*Config, error) {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DotEnvFile, err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	envServerAddress := cfg.ServerAddress
	envBaseURL := cfg.BaseURL
	envDatabaseDSN := cfg.DatabaseDSN
	envJWTSecret := cfg.JWTSecret

	flag.StringVar(&cfg.ServerAddress, "a", "localhost:8080", "Address of the server")
	flag.StringVar(&cfg.BaseURL, "b", "http://localhost:8080", "Base URL for short URLs")
	flag.StringVar(&cfg.DatabaseDSN, "d", "", "Database DSN (postgres, sqlite or libsql); empty keeps links in memory")
	flag.StringVar(&cfg.JWTSecret, "s", "", "Secret used to sign session tokens")

	flag.Parse()

	if envServerAddress != "" {
		cfg.ServerAddress = envServerAddress
	}
	if envBaseURL != "" {
		cfg.BaseURL = envBaseURL
	}
	if envDatabaseDSN != "" {
		cfg.DatabaseDSN = envDatabaseDSN
	}
	if envJWTSecret != "" {
		cfg.JWTSecret = envJWTSecret
	}

	cfg.applyDefaultValues()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base URL %q must be an absolute URL", c.BaseURL)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	if c.ClickWorkers < 1 {
		return fmt.Errorf("click workers must be positive, got %d", c.ClickWorkers)
	}
	if c.ClickQueueSize < 1 {
		return fmt.Errorf("click queue size must be positive, got %d", c.ClickQueueSize)
	}
	return nil
}

func (c *Config) applyDefaultValues() {
	if c.ServerAddress == "" {
		c.ServerAddress = getDefaultServerAddress()
	}
	if c.BaseURL == "" {
		c.BaseURL = getDefaultBaseURL()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.ClickWorkers == 0 {
		c.ClickWorkers = 3
	}
	if c.ClickQueueSize == 0 {
		c.ClickQueueSize = 1000
	}
	if c.ClickWriteTimeout <= 0 {
		c.ClickWriteTimeout = 5 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

func getDefaultServerAddress() string {
	return "localhost:8080"
}

func getDefaultBaseURL() string {
	return "http://localhost:8080"
}
