package auth

import (
	"github.com/gofiber/fiber/v2"

	helper "waterworks_backend/internals/helpers"
	helperAuth "waterworks_backend/internals/helpers/auth"
)

// RoleMiddlewareWithCustomError lets the request through when the caller's
// role is one of allowedRoles. Must run after AuthJWT.
func RoleMiddlewareWithCustomError(allowedRoles []string, customForbiddenMessage string) fiber.Handler {
	if customForbiddenMessage == "" {
		customForbiddenMessage = "Forbidden: you are not authorized to access this resource"
	}
	return func(c *fiber.Ctx) error {
		user, err := helperAuth.GetCurrentUser(c)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		if user.HasRole(allowedRoles...) {
			return c.Next()
		}
		return helper.JsonError(c, fiber.StatusForbidden, customForbiddenMessage)
	}
}

func OnlyRoles(customMessage string, roles ...string) fiber.Handler {
	return RoleMiddlewareWithCustomError(roles, customMessage)
}
