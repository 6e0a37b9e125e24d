package handlers

import (
	"log/slog"
	"strconv"

	"userapi/internal/models"
	"userapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Pagination defaults for GET /users.
const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service  *services.UserService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		service:  service,
		validate: NewValidator(),
		logger:   logger,
	}
}

// RegisterRoutes registers the user routes with the Fiber router.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Put("/:id", h.HandleUpdateUser)
	userRoutes.Delete("/:id", h.HandleDeleteUser)
}

// HandleListUsers returns a page of users.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	errs := make(map[string]string)
	skip := queryNonNegativeInt(c, "skip", DefaultSkip, errs)
	limit := queryNonNegativeInt(c, "limit", DefaultLimit, errs)
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	users, err := h.service.ListUsers(c.UserContext(), skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(models.ToResponses(users))
}

// HandleCreateUser creates a new user.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var req models.CreateUserRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.service.CreateUser(c.UserContext(), req)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// HandleGetUser retrieves a single user by its ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return validationFailed(c, map[string]string{"id": "must be a non-negative integer"})
	}

	user, err := h.service.GetUserByID(c.UserContext(), id)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(user.ToResponse())
}

// HandleUpdateUser applies a partial update to a user.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return validationFailed(c, map[string]string{"id": "must be a non-negative integer"})
	}

	var req models.UpdateUserRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.service.UpdateUser(c.UserContext(), id, req)
	if err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.JSON(user.ToResponse())
}

// HandleDeleteUser deletes a user.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return validationFailed(c, map[string]string{"id": "must be a non-negative integer"})
	}

	if err := h.service.DeleteUser(c.UserContext(), id); err != nil {
		return writeServiceError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func pathID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// queryNonNegativeInt reads an optional non-negative integer query parameter,
// recording a message in errs when it is malformed.
func queryNonNegativeInt(c *fiber.Ctx, key string, def int, errs map[string]string) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		errs[key] = "must be a non-negative integer"
		return def
	}
	return n
}
