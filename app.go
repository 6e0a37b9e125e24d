package main

import (
	"log/slog"

	"userapi/internal/config"
	"userapi/internal/handlers"
	"userapi/internal/middleware"
	"userapi/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const accessLogFormat = "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n"

// NewApp builds the Fiber application with middleware and all routes.
// health may be nil when no database backs the service.
func NewApp(cfg *config.Config, userService *services.UserService, health handlers.HealthChecker, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Middleware ---
	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.IsDevelopment()}))
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{Format: accessLogFormat}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowedOrigins}))

	app.Get("/", handlers.RootHandler(cfg.AppName))

	// --- API Routes ---
	api := app.Group(cfg.APIPrefix)

	handlers.NewHealthHandler(health).RegisterRoutes(api)
	handlers.NewUserHandler(userService, log).RegisterRoutes(api)

	return app
}
