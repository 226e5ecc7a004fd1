package middlewares

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/metrics"
)

// MetricsMiddleware observes request latency by route template, not raw path.
func MetricsMiddleware(m *metrics.BillingMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else if status < fiber.StatusBadRequest {
				status = fiber.StatusInternalServerError
			}
		}
		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		m.HTTPRequest(c.Method(), route, strconv.Itoa(status), time.Since(start))
		return err
	}
}
