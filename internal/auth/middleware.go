package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/legal-intake/internal/domain"
	apperrors "github.com/spec-kit/legal-intake/pkg/util"
)

const sessionKey = "auth_session"

// SessionResolver turns a bearer token into a live session.
type SessionResolver interface {
	SessionFromToken(ctx context.Context, token string) (*domain.Session, error)
}

// AuthMiddleware validates bearer tokens and loads sessions.
type AuthMiddleware struct {
	resolver SessionResolver
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(resolver SessionResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthenticated("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthenticated("invalid authorization header")
	}

	session, err := m.resolver.SessionFromToken(c.UserContext(), strings.TrimSpace(parts[1]))
	if err != nil {
		return err
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

// SessionFromContext retrieves the authenticated session, if any.
func SessionFromContext(c *fiber.Ctx) *domain.Session {
	session, _ := c.Locals(sessionKey).(*domain.Session)
	return session
}
