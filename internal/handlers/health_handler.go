package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const dbCheckTimeout = 5 * time.Second

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and database health probes.
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new HealthHandler. db may be nil when the
// service runs without a database.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// RegisterRoutes registers the health routes with the Fiber router.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
	router.Get("/health/db", h.HandleDatabaseHealth)
}

// HandleHealth reports that the process is serving requests.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "API is running",
	})
}

// HandleDatabaseHealth runs a trivial query against the store. It always
// answers 200 and reports the outcome in the body.
func (h *HealthHandler) HandleDatabaseHealth(c *fiber.Ctx) error {
	if h.db == nil {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"message": "In-memory store in use",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), dbCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.JSON(fiber.Map{
			"status":  "unhealthy",
			"message": "Database connection failed: " + err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "Database connection is working",
	})
}

// RootHandler answers GET / with a banner naming the service.
func RootHandler(appName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": appName + " API is running!"})
	}
}
