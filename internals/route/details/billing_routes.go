package details

import (
	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/features/billing"
	authcodeRoute "waterworks_backend/internals/features/billing/authcodes/route"
	billRoute "waterworks_backend/internals/features/billing/bills/route"
	gatewayRoute "waterworks_backend/internals/features/billing/gateway/route"
	paymentController "waterworks_backend/internals/features/billing/payments/controller"
	paymentRoute "waterworks_backend/internals/features/billing/payments/route"
	reportRoute "waterworks_backend/internals/features/billing/reports/route"
)

// BillingPublicRoutes: gateway webhooks, no JWT.
func BillingPublicRoutes(r fiber.Router, svc *billing.Services) {
	gatewayRoute.PublicWebhookRoutes(r, svc.Adapter)
}

// BillingUserRoutes: /api/u, every signed-in role, scoped to the caller.
func BillingUserRoutes(r fiber.Router, svc *billing.Services, defaultGateway string) {
	billRoute.UserBillRoutes(r, svc.Ledger)
	paymentRoute.UserPaymentRoutes(r, paymentController.NewPaymentController(svc.Processor, svc.Adapter, defaultGateway))
	reportRoute.UserReportRoutes(r, svc.Aggregator)
}

// BillingAdminRoutes: /api/a, each feature applies its own role guard.
func BillingAdminRoutes(r fiber.Router, svc *billing.Services, defaultGateway string) {
	billRoute.AdminBillRoutes(r, svc.Ledger)
	paymentRoute.AdminPaymentRoutes(r, paymentController.NewPaymentController(svc.Processor, svc.Adapter, defaultGateway))
	reportRoute.AdminReportRoutes(r, svc.Aggregator)
	authcodeRoute.AdminAuthorizationCodeRoutes(r, svc.Guard)
	gatewayRoute.AdminGatewayRoutes(r, svc.Adapter)
}
