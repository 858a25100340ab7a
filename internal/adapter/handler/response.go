package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shivam-0510/Banking-app/internal/core/domain"
)

// fail maps the core's typed failures onto HTTP statuses. The core itself
// knows nothing about transport; this is the only place the mapping lives.
func fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidOperation),
		errors.Is(err, domain.ErrInsufficientBalance):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrLimitExceeded):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrConcurrentModification):
		// Retries already exhausted inside the engine; the caller may retry
		// the whole operation.
		slog.Warn("Movement failed after retries", "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"error": "please retry"})
	default:
		slog.Error("Unhandled service error", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
