package database

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"stocks-finance/config"
	"stocks-finance/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DBConfig, env string) (*gorm.DB, error) {
	const op = "database.Open"

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port,
		)
		dialector = postgres.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("%s: unsupported driver %q", op, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags), env),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite has a single writer, and an in-memory database lives only as
		// long as its connection.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slog.Info("database ready", slog.String("driver", cfg.Driver))
	return db, nil
}

// newLogger builds the gorm logger for env. Missing rows are an expected
// outcome of lookups such as GetByUsername and are not logged.
func newLogger(w logger.Writer, env string) logger.Interface {
	level := logger.Warn
	if env == "local" {
		level = logger.Info
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  env == "local",
	})
}

// Migrate creates or updates the users and transactions tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying db connection: %w", err)
	}
	return sqlDB.Close()
}
