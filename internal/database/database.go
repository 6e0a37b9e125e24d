// Package database opens the relational store behind the user repository.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"userapi/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds connection settings for the store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
	// Logger receives GORM's log output; slog.Default when nil.
	Logger          *slog.Logger
}

// Database wraps a GORM handle with lifecycle helpers.
type Database struct {
	*gorm.DB
}

// Open connects to the store selected by the DSN and migrates the schema.
func Open(cfg Config) (*Database, error) {
	dialector, isSQLite, err := dialectorFor(cfg.DSN)
	if err != nil {
		return nil, err
	}

	logLevel := cfg.LogLevel
	if logLevel == 0 {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         newGormLogger(cfg.Logger, logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying connection pool: %w", err)
	}
	if isSQLite {
		// SQLite allows a single writer, and an in-memory database lives only
		// as long as its connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := db.AutoMigrate(&models.User{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// Ping executes a trivial round-trip against the store.
func (d *Database) Ping(ctx context.Context) error {
	var one int
	return d.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// Close releases the connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying connection pool: %w", err)
	}
	return sqlDB.Close()
}

// dialectorFor picks the GORM driver from the DSN.
func dialectorFor(dsn string) (gorm.Dialector, bool, error) {
	switch {
	case dsn == "":
		return nil, false, fmt.Errorf("database DSN is empty")
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://")), true, nil
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"):
		return sqlite.Open(dsn), true, nil
	case strings.HasPrefix(dsn, "postgres://"),
		strings.HasPrefix(dsn, "postgresql://"),
		strings.Contains(dsn, "host="):
		return postgres.Open(dsn), false, nil
	default:
		return nil, false, fmt.Errorf("unsupported database DSN scheme")
	}
}
