package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"waterworks_backend/internals/constants"
	"waterworks_backend/internals/features/billing"
	authMiddleware "waterworks_backend/internals/middlewares/auth"
	routeDetails "waterworks_backend/internals/route/details"
)

var startTime time.Time

type Deps struct {
	DB             *gorm.DB
	Services       *billing.Services
	JWTSecret      string
	DefaultGateway string
	Env            string
	Log            *zap.Logger
}

func SetupRoutes(app *fiber.App, deps Deps) {
	startTime = time.Now()
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	BaseRoutes(app, deps)

	api := app.Group("/api")

	// ===================== PUBLIC (gateway callbacks) =====================
	log.Info("mounting public billing routes")
	routeDetails.BillingPublicRoutes(api, deps.Services)

	jwt := authMiddleware.AuthJWT(authMiddleware.AuthJWTOpts{
		Secret:              deps.JWTSecret,
		AllowCookieFallback: true,
		Log:                 log,
	})

	// ===================== PRIVATE (USER) =====================
	log.Info("mounting /api/u")
	user := api.Group("/u",
		jwt,
		authMiddleware.OnlyRoles("Access denied", constants.AllRoles...),
	)
	routeDetails.BillingUserRoutes(user, deps.Services, deps.DefaultGateway)

	// ===================== STAFF / ADMIN =====================
	log.Info("mounting /api/a")
	admin := api.Group("/a", jwt)
	routeDetails.BillingAdminRoutes(admin, deps.Services, deps.DefaultGateway)
}
