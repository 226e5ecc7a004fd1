package route

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing/payments/controller"
	"waterworks_backend/internals/middlewares"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
)

// UserPaymentRoutes mounts under /api/u.
func UserPaymentRoutes(r fiber.Router, ctl *controller.PaymentController) {
	payments := r.Group("/payments")
	payments.Get("/", ctl.ListMine)
	payments.Post("/", middlewares.PaymentRateLimiter(), ctl.Initiate)
	payments.Get("/:id", ctl.GetMine)
	payments.Patch("/:id/reference", ctl.UpdateReference)
	payments.Get("/:id/status", ctl.StatusMine)
}

// AdminPaymentRoutes mounts under /api/a.
func AdminPaymentRoutes(r fiber.Router, ctl *controller.PaymentController) {
	payments := r.Group("/payments",
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("payment processing"), constants.StaffAndAbove...),
	)
	payments.Get("/", ctl.List)
	payments.Get("/:id", ctl.Get)
	payments.Patch("/:id/process", ctl.Process)
	payments.Get("/:id/status", ctl.StatusAny)
}
