package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	helperAuth "waterworks_backend/internals/helpers/auth"
)

// RequestIDMiddleware honours an incoming X-Request-ID or mints one.
func RequestIDMiddleware() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     fiber.HeaderXRequestID,
		Generator:  uuid.NewString,
		ContextKey: helperAuth.LocRequestID,
	})
}
