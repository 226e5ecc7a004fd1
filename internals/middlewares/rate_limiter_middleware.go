package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "waterworks_backend/internals/helpers"
)

func newIPLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// GlobalRateLimiter covers every authenticated endpoint.
func GlobalRateLimiter() fiber.Handler {
	return newIPLimiter(100, time.Minute, "Too many requests. Please try again later.")
}

// PaymentRateLimiter guards payment initiation, which calls out to gateways.
func PaymentRateLimiter() fiber.Handler {
	return newIPLimiter(10, time.Minute, "Too many payment attempts. Please wait a moment.")
}

// WebhookRateLimiter is loose; gateways retry in bursts.
func WebhookRateLimiter() fiber.Handler {
	return newIPLimiter(300, time.Minute, "Too many webhook deliveries.")
}
