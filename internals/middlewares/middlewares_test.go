package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "waterworks_backend/internals/helpers/auth"
	"waterworks_backend/internals/metrics"
)

func TestRequestIDEchoesOrMints(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		rid, _ := c.Locals(helperAuth.LocRequestID).(string)
		return c.SendString(rid)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}

func TestRecoveryAnswers500(t *testing.T) {
	app := fiber.New()
	app.Use(RecoveryMiddleware(nil))
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestMetricsMiddlewarePassesThrough(t *testing.T) {
	m := metrics.NewBillingMetrics(prometheus.NewRegistry(), metrics.Config{})
	app := fiber.New()
	app.Use(MetricsMiddleware(m))
	app.Get("/bills/:id", func(c *fiber.Ctx) error { return fiber.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bills/42", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPaymentRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Use(PaymentRateLimiter())
	app.Post("/pay", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusCreated) })

	var last int
	for i := 0; i < 11; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/pay", nil))
		require.NoError(t, err)
		last = resp.StatusCode
	}
	assert.Equal(t, fiber.StatusTooManyRequests, last)
}
