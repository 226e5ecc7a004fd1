package route

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing/authcodes/controller"
	"waterworks_backend/internals/features/billing/authcodes/service"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
)

// AdminAuthorizationCodeRoutes mounts /authorization-codes for administrators only.
func AdminAuthorizationCodeRoutes(r fiber.Router, guard *service.Guard) {
	ctl := controller.NewAuthorizationCodeController(guard)

	codes := r.Group("/authorization-codes",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("authorization codes"), constants.AdminOnly...),
	)
	codes.Get("/", ctl.List)
	codes.Post("/", ctl.Create)
	codes.Get("/:id", ctl.Get)
	codes.Put("/:id", ctl.Update)
	codes.Delete("/:id", ctl.Delete)
}
