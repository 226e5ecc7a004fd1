package route

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing/reports/controller"
	"waterworks_backend/internals/features/billing/reports/service"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
)

func AdminReportRoutes(r fiber.Router, agg *service.Aggregator) {
	ctl := controller.NewReportController(agg)

	reports := r.Group("/reports",
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("reports"), constants.StaffAndAbove...),
	)
	reports.Get("/delinquency", ctl.Delinquency)
	reports.Get("/collection", ctl.Collection)
	reports.Get("/summary", ctl.Summary)
}

func UserReportRoutes(r fiber.Router, agg *service.Aggregator) {
	ctl := controller.NewReportController(agg)
	r.Get("/usage", ctl.MyUsage)
}
