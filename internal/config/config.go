// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	AppName   string
	AppEnv    string
	AppPort   string
	APIPrefix string

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Token settings are declared for clients of this service; no endpoint
	// issues or checks tokens.
	SecretKey                string
	Algorithm                string
	AccessTokenExpireMinutes int

	// Logging
	LogLevel  string
	LogFormat string

	// HTTP server
	CORSAllowedOrigins string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration

	// Events; an empty URL disables publishing.
	RabbitMQURL      string
	RabbitMQExchange string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "User Service")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8000")
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("POSTGRES_HOST", "")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_USER", "")
	v.SetDefault("POSTGRES_PASSWORD", "")
	v.SetDefault("POSTGRES_DB", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("ALGORITHM", "HS256")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("READ_TIMEOUT", "5s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "users")
}

// Load reads the optional env files (".env" when none are given) and then
// the process environment. Variables already set in the environment win
// over the files.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			slog.Debug("env file not loaded, continuing with system env vars", "file", f, "error", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppName:   v.GetString("APP_NAME"),
		AppEnv:    v.GetString("APP_ENV"),
		AppPort:   v.GetString("APP_PORT"),
		APIPrefix: v.GetString("API_PREFIX"),

		DatabaseURL:       v.GetString("DATABASE_URL"),
		DBMaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		DBConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),

		SecretKey:                v.GetString("SECRET_KEY"),
		Algorithm:                v.GetString("ALGORITHM"),
		AccessTokenExpireMinutes: v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES"),

		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		CORSAllowedOrigins: v.GetString("CORS_ALLOWED_ORIGINS"),
		ReadTimeout:        v.GetDuration("READ_TIMEOUT"),
		WriteTimeout:       v.GetDuration("WRITE_TIMEOUT"),
		ShutdownTimeout:    v.GetDuration("SHUTDOWN_TIMEOUT"),

		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		RabbitMQExchange: v.GetString("RABBITMQ_EXCHANGE"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = postgresURL(
			v.GetString("POSTGRES_HOST"),
			v.GetString("POSTGRES_PORT"),
			v.GetString("POSTGRES_USER"),
			v.GetString("POSTGRES_PASSWORD"),
			v.GetString("POSTGRES_DB"),
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL or POSTGRES_HOST must be set"))
	}
	if c.Algorithm == jwt.SigningMethodNone.Alg() || jwt.GetSigningMethod(c.Algorithm) == nil {
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not a known signing method", c.Algorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		errs = append(errs, fmt.Errorf("API_PREFIX %q must start with '/'", c.APIPrefix))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// AccessTokenTTL returns the configured token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RedactedDatabaseURL returns DatabaseURL with the password removed, for logging.
func (c *Config) RedactedDatabaseURL() string {
	parsed, err := url.Parse(c.DatabaseURL)
	if err != nil || parsed.Scheme == "" {
		return "[redacted]"
	}
	if parsed.User != nil {
		parsed.User = url.User(parsed.User.Username())
	}
	return parsed.String()
}

// postgresURL builds a connection URL from its parts, or returns "" when no host is set.
func postgresURL(host, port, user, password, dbName string) string {
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}
