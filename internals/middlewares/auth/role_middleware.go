package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RoleMiddlewareWithCustomError checks the role with a custom error message
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(string)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized: missing role information")
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		if customForbiddenMessage == "" {
			customForbiddenMessage = "forbidden: you are not authorized to access this resource"
		}
		return fiber.NewError(fiber.StatusForbidden, customForbiddenMessage)
	}
}

// Shortcut for the common case
func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
