package middleware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/shivam-0510/Banking-app/internal/core/service"
)

// RequireOwner guards account-scoped routes: the caller identity (already
// authenticated by the gateway in front of us, carried in X-Owner-Id) must
// own the account in the URL. The core only supplies the ownership
// predicate; the decision to enforce it lives here.
func RequireOwner(accounts *service.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := c.Get("X-Owner-Id")
		if ownerID == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Missing owner identity"})
		}

		accountNumber := c.Params("accountNumber")
		owns, err := accounts.AccountBelongsTo(c.Context(), accountNumber, ownerID)
		if err != nil {
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Ownership check failed"})
		}
		if !owns {
			return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Account does not belong to caller"})
		}

		c.Locals("owner_id", ownerID)
		return c.Next()
	}
}
