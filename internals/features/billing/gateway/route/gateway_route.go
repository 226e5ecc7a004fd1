package route

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing/gateway/controller"
	"waterworks_backend/internals/features/billing/gateway/service"
	"waterworks_backend/internals/middlewares"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
)

// PublicWebhookRoutes mounts /payment/webhook/:gateway without auth; the
// adapter verifies signatures itself.
func PublicWebhookRoutes(r fiber.Router, adapter *service.Adapter) {
	ctl := controller.NewWebhookController(adapter)
	r.Post("/payment/webhook/:gateway", middlewares.WebhookRateLimiter(), ctl.Receive)
}

func AdminGatewayRoutes(r fiber.Router, adapter *service.Adapter) {
	ctl := controller.NewWebhookController(adapter)
	r.Get("/gateway-events",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("gateway events"), constants.AdminOnly...),
		ctl.Events,
	)
}
