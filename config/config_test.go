package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("API_KEY", "demo")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}

		if cfg.Database.Driver != DriverSQLite {
			t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, DriverSQLite)
		}
		if cfg.Session.Store != SessionStoreFilesystem {
			t.Errorf("Session.Store = %q, want %q", cfg.Session.Store, SessionStoreFilesystem)
		}
		if cfg.Session.TTL != 24*time.Hour {
			t.Errorf("Session.TTL = %v, want 24h", cfg.Session.TTL)
		}
		if !cfg.Trading.StartingCash().Equal(decimal.NewFromInt(10000)) {
			t.Errorf("StartingCash() = %s, want 10000", cfg.Trading.StartingCash())
		}
		if cfg.NeedsRedis() {
			t.Error("NeedsRedis() = true with default settings")
		}
	})

	t.Run("missing_api_key", func(t *testing.T) {
		t.Setenv("API_KEY", "placeholder")
		os.Unsetenv("API_KEY")

		if _, err := Load(); err == nil {
			t.Fatal("Load() expected an error without API_KEY")
		}
	})

	t.Run("invalid_values", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			{"driver", "DB_DRIVER", "oracle"},
			{"session_store", "SESSION_STORE", "memcached"},
			{"cash_format", "DEFAULT_CASH", "lots"},
			{"cash_negative", "DEFAULT_CASH", "-1"},
			{"redis_without_addr", "SESSION_STORE", "redis"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Setenv("API_KEY", "demo")
				t.Setenv(tt.key, tt.value)

				if _, err := Load(); err == nil {
					t.Errorf("Load() with %s=%q expected an error", tt.key, tt.value)
				}
			})
		}
	})

	t.Run("quote_cache_needs_redis", func(t *testing.T) {
		t.Setenv("API_KEY", "demo")
		t.Setenv("QUOTE_CACHE_TTL", "1m")
		t.Setenv("REDIS_ADDR", "localhost:6379")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}
		if !cfg.NeedsRedis() {
			t.Error("NeedsRedis() = false with a quote cache configured")
		}
	})
}
