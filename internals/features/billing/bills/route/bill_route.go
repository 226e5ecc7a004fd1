package route

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing/bills/controller"
	"waterworks_backend/internals/features/billing/bills/service"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
)

/*
Staff routes. Mount: AdminBillRoutes(app.Group("/api/a"), ledger)
  - /api/a/bills ...
*/
func AdminBillRoutes(r fiber.Router, ledger *service.Ledger) {
	ctl := controller.NewBillController(ledger)

	bills := r.Group("/bills",
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("bill management"), constants.StaffAndAbove...),
	)
	bills.Get("/", ctl.List)
	bills.Post("/", ctl.Create)
	bills.Get("/:id", ctl.Get)
	bills.Put("/:id", ctl.Update)
	bills.Patch("/:id/restate", ctl.Restate)
	bills.Patch("/:id/mark-paid", ctl.MarkPaid)
	bills.Delete("/:id",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("bill deletion"), constants.AdminOnly...),
		ctl.Delete,
	)
}

// UserBillRoutes mounts under /api/u; clients only ever see their own bills.
func UserBillRoutes(r fiber.Router, ledger *service.Ledger) {
	ctl := controller.NewBillController(ledger)

	bills := r.Group("/bills")
	bills.Get("/", ctl.ListMine)
	bills.Get("/pending", ctl.PendingMine)
	bills.Get("/:id", ctl.GetMine)
}
