// file: internals/features/billing/gateway/controller/webhook_controller.go
package controller

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"waterworks_backend/internals/features/billing/gateway/dto"
	"waterworks_backend/internals/features/billing/gateway/service"
	helper "waterworks_backend/internals/helpers"
)

type WebhookController struct {
	Adapter *service.Adapter
}

func NewWebhookController(a *service.Adapter) *WebhookController {
	return &WebhookController{Adapter: a}
}

/* =======================================================================
   POST /api/payment/webhook/:gateway

   200 for everything the gateway should not retry (processed, duplicate,
   ignored), 401 on a bad signature, 503 when storage failed so the
   gateway redelivers.
======================================================================= */

func (h *WebhookController) Receive(c *fiber.Ctx) error {
	headers := map[string]string{}
	c.Request().Header.VisitAll(func(k, v []byte) {
		headers[string(k)] = string(v)
	})
	body := append([]byte(nil), c.Body()...)

	res, err := h.Adapter.HandleWebhook(c.UserContext(), service.WebhookRequest{
		Provider: strings.ToLower(c.Params("gateway")),
		Headers:  headers,
		Body:     body,
	})
	switch {
	case errors.Is(err, service.ErrInvalidSignature):
		return helper.JsonError(c, fiber.StatusUnauthorized, "invalid signature")
	case err != nil && res == nil:
		return helper.JsonAppError(c, err)
	case err != nil:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "webhook not processed, retry later",
			"data":    res,
		})
	}
	return helper.JsonOK(c, "webhook received", res)
}

// GET /gateway-events?provider=&limit=
func (h *WebhookController) Events(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := h.Adapter.Events(c.UserContext(), c.Query("provider"), limit)
	if err != nil {
		return helper.JsonAppError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.FromModels(rows))
}
