package middleware

import (
	"slices"

	. "martinspocos/internal/models"

	"github.com/gofiber/fiber/v2"
)

// RequireRole must run after RequireAuth.
func (m *Middleware) RequireRole(roles ...Role) fiber.Handler {
	log := m.log.Function("RequireRole")

	return func(c *fiber.Ctx) error {
		principal := GetPrincipal(c)
		if principal == nil {
			return deny(c, fiber.StatusUnauthorized, "Authentication required")
		}

		if !slices.Contains(roles, principal.Role) {
			log.Info("role not allowed", "principalID", principal.ID, "role", principal.Role, "path", c.Path())
			return deny(c, fiber.StatusForbidden, "You do not have access to this resource")
		}

		return c.Next()
	}
}

func (m *Middleware) RequireStaff() fiber.Handler {
	return m.RequireRole(RoleSales, RoleSupervisor)
}

func (m *Middleware) RequireSupervisor() fiber.Handler {
	return m.RequireRole(RoleSupervisor)
}

func (m *Middleware) RequireCustomer() fiber.Handler {
	return m.RequireRole(RoleUser)
}
