package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"userapi/internal/config"
	"userapi/internal/database"
	"userapi/internal/handlers"
	"userapi/internal/repositories"
	"userapi/internal/services"
	"userapi/pkg/rabbitmq"
)

// memoryDSN selects the in-process store instead of a database.
const memoryDSN = "memory://"

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := initLogger(cfg)
	log.Info("starting service",
		"app", cfg.AppName,
		"env", cfg.AppEnv,
		"port", cfg.AppPort,
		"database", cfg.RedactedDatabaseURL(),
		"access_token_ttl", cfg.AccessTokenTTL(),
	)

	// --- Store ---
	var (
		userRepo repositories.UserRepository
		health   handlers.HealthChecker
		db       *database.Database
	)
	if cfg.DatabaseURL == memoryDSN {
		log.Warn("using in-memory store, data will not survive a restart")
		userRepo = repositories.NewMemoryUserRepository()
	} else {
		db, err = database.Open(database.Config{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			Logger:          log,
		})
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		userRepo = repositories.NewGORMUserRepository(db.DB)
		health = db
	}

	// --- Events ---
	var (
		publisher services.EventPublisher
		mqClient  *rabbitmq.Client
	)
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
		})
		if err != nil {
			// Events are best effort; keep serving without them.
			log.Warn("RabbitMQ unavailable, user events disabled", "error", err)
		} else {
			publisher = mqClient
		}
	}

	userService := services.NewUserService(userRepo, publisher, log)
	app := NewApp(cfg, userService, health, log)

	// --- Start HTTP Server ---
	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Error("error during server shutdown", "error", err)
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			log.Error("error closing RabbitMQ client", "error", err)
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	}
	log.Info("server gracefully stopped")
}

// initLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
