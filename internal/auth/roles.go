package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/domain"
)

// RequireRole rejects requests whose session lacks role. Services check again;
// this only short-circuits obviously misrouted callers.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authorize(SessionFromContext(c), role); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (client or admin).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := Authenticated(SessionFromContext(c)); err != nil {
			return err
		}
		return c.Next()
	}
}
