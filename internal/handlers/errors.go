package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"userapi/internal/middleware"
	"userapi/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Error details returned to clients.
const (
	DetailUserNotFound       = "User not found"
	DetailEmailRegistered    = "Email already registered"
	DetailValidationFailed   = "Validation failed"
	DetailInvalidRequestBody = "Invalid request body"
	DetailInternalError      = "Internal server error"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// parseAndValidate decodes the JSON body into out and validates it.
// On failure it writes the 422 response and returns ok=false.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, out any) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": DetailInvalidRequestBody,
			"errors": fiber.Map{"body": err.Error()},
		})
	}

	if err := v.Struct(out); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return false, err
		}
		errorMessages := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return false, validationFailed(c, errorMessages)
	}
	return true, nil
}

func validationFailed(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": DetailValidationFailed,
		"errors": errs,
	})
}

// writeServiceError maps domain errors to HTTP responses. Anything else is
// returned to Fiber's error handler.
func writeServiceError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": DetailUserNotFound})
	case errors.Is(err, services.ErrEmailAlreadyRegistered):
		logger.Info("email conflict", "request_id", middleware.GetRequestID(c), "path", c.Path())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": DetailEmailRegistered})
	default:
		return err
	}
}

// ErrorHandler is the Fiber error handler for errors no handler dealt with.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"detail": fiberErr.Message})
		}

		logger.Error("unhandled error",
			slog.String("request_id", middleware.GetRequestID(c)),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": DetailInternalError})
	}
}
