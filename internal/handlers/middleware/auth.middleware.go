package middleware

import (
	"context"
	"strings"

	"martinspocos/internal/apperrors"
	. "martinspocos/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuthContextKey string

const (
	PrincipalKey      AuthContextKey = "principal"
	PrincipalKeyFiber string         = "Principal"
)

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func setPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(PrincipalKeyFiber, principal)
	c.SetUserContext(context.WithValue(c.UserContext(), PrincipalKey, principal))
}

// RequireAuth rejects the request unless it carries a valid token.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		token, ok := bearerToken(c)
		if !ok {
			log.Info("missing or malformed authorization header", "path", c.Path())
			return deny(c, fiber.StatusUnauthorized, "Authentication required")
		}

		principal, err := m.auth.Authenticate(c.UserContext(), token)
		if err != nil {
			if status := apperrors.StatusCode(err); status >= fiber.StatusInternalServerError {
				log.Er("failed to authenticate token", err)
				return deny(c, status, "Internal server error")
			}
			log.Info("token rejected", "path", c.Path())
			return deny(c, fiber.StatusUnauthorized, "Invalid or expired token")
		}

		setPrincipal(c, principal)
		return c.Next()
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// otherwise lets the request through anonymously.
func (m *Middleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}

		principal, err := m.auth.Authenticate(c.UserContext(), token)
		if err != nil {
			m.log.TraceFromContext(c.UserContext()).
				Function("OptionalAuth").
				Debug("ignoring invalid token", "error", err)
			return c.Next()
		}

		setPrincipal(c, principal)
		return c.Next()
	}
}

func GetPrincipal(c *fiber.Ctx) *Principal {
	principal, ok := c.Locals(PrincipalKeyFiber).(*Principal)
	if !ok {
		return nil
	}
	return principal
}
