package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionStoreFilesystem = "filesystem"
	SessionStoreRedis      = "redis"
)

type Config struct {
	Env      string `env:"ENV" env-default:"local"`
	HTTP     HTTPConfig
	Database DBConfig
	Quote    QuoteConfig
	Session  SessionConfig
	Redis    RedisConfig
	Trading  TradingConfig
}

type HTTPConfig struct {
	Port            uint16        `env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" env-default:"sqlite"`
	Path     string `env:"DB_PATH" env-default:"finance.db"`
	Host     string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port     uint16 `env:"POSTGRES_PORT" env-default:"5432"`
	User     string `env:"POSTGRES_USER" env-default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	DBName   string `env:"POSTGRES_DB" env-default:"finance"`
}

type QuoteConfig struct {
	APIKey   string        `env:"API_KEY" env-required:"true"`
	BaseURL  string        `env:"QUOTE_BASE_URL" env-default:"https://www.alphavantage.co"`
	Timeout  time.Duration `env:"QUOTE_TIMEOUT" env-default:"5s"`
	CacheTTL time.Duration `env:"QUOTE_CACHE_TTL" env-default:"0s"`
}

type SessionConfig struct {
	Store      string        `env:"SESSION_STORE" env-default:"filesystem"`
	Dir        string        `env:"SESSION_DIR"`
	Secret     string        `env:"SESSION_SECRET"`
	TTL        time.Duration `env:"SESSION_TTL" env-default:"24h"`
	CookieName string        `env:"SESSION_COOKIE" env-default:"session"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type TradingConfig struct {
	DefaultCash string `env:"DEFAULT_CASH" env-default:"10000.00"`
}

// StartingCash returns the parsed DEFAULT_CASH. Load has already validated it.
func (t TradingConfig) StartingCash() decimal.Decimal {
	return decimal.RequireFromString(t.DefaultCash)
}

// NeedsRedis reports whether any configured component talks to redis.
func (c *Config) NeedsRedis() bool {
	return c.Session.Store == SessionStoreRedis || c.Quote.CacheTTL > 0
}

// Load reads the configuration from the environment, honouring a local .env file.
func Load() (*Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

// MustLoad is Load for process start-up: any error is fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Session.Store {
	case SessionStoreFilesystem, SessionStoreRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Session.TTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	cash, err := decimal.NewFromString(c.Trading.DefaultCash)
	if err != nil {
		return fmt.Errorf("invalid DEFAULT_CASH %q: %w", c.Trading.DefaultCash, err)
	}
	if cash.IsNegative() {
		return errors.New("DEFAULT_CASH must not be negative")
	}

	if c.NeedsRedis() && c.Redis.Addr == "" {
		return errors.New("REDIS_ADDR is required by the redis session store and the quote cache")
	}

	return nil
}
