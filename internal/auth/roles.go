package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/damage-service/internal/domain"
)

// RequireRole ensures the principal has one of the allowed roles. An empty
// list only checks authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireStakeholder ensures the caller may report damages.
func RequireStakeholder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Role.IsStakeholder() && principal.Role != domain.RoleAdmin {
			return fiber.NewError(http.StatusForbidden, "stakeholder role required")
		}
		return c.Next()
	}
}

// RequireCompany ensures the caller acts for a craftsman company.
func RequireCompany() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.Role.IsCompany() && principal.Role != domain.RoleAdmin {
			return fiber.NewError(http.StatusForbidden, "company role required")
		}
		return c.Next()
	}
}
