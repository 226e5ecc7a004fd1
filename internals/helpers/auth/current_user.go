// file: internals/helpers/auth/current_user.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

/* ===============================
   Locals keys (set by AuthJWT)
=================================*/

const (
	LocUserID      = "user_id"
	LocRole        = "role"
	LocCurrentUser = "current_user"
	LocJWTClaims   = "jwt_claims"
	LocRequestID   = "request_id"
)

// CurrentUser is the caller as asserted by the identity store's token.
type CurrentUser struct {
	ID           uuid.UUID
	Role         string
	Name         string
	Email        string
	Phone        string
	WWSID        string
	ServiceClass string
}

func (u CurrentUser) HasRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(u.Role, r) {
			return true
		}
	}
	return false
}

// GetCurrentUser returns the user AuthJWT stored for this request.
func GetCurrentUser(c *fiber.Ctx) (CurrentUser, error) {
	switch v := c.Locals(LocCurrentUser).(type) {
	case CurrentUser:
		if v.ID != uuid.Nil {
			return v, nil
		}
	case *CurrentUser:
		if v != nil && v.ID != uuid.Nil {
			return *v, nil
		}
	}
	return CurrentUser{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - user not found in token")
}
