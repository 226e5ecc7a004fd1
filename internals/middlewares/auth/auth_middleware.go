// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	helperAuth "waterworks_backend/internals/helpers/auth"
)

type AuthJWTOpts struct {
	Secret string
	// AllowCookieFallback reads the access_token cookie when no Bearer header is sent.
	AllowCookieFallback bool
	Log                 *zap.Logger
}

// AuthJWT verifies an HS256 token issued by the identity store and hydrates
// helperAuth.CurrentUser into locals. Tokens are never issued here.
func AuthJWT(o AuthJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("AuthJWT: secret is required")
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("auth")

	return func(c *fiber.Ctx) error {
		raw, err := extractBearerToken(c, o.AllowCookieFallback)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			log.Debug("token rejected", zap.Error(err), zap.String("path", c.Path()))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid or expired token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid token claims")
		}

		user, err := userFromClaims(claims)
		if err != nil {
			log.Debug("token claims rejected", zap.Error(err))
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - "+err.Error())
		}

		c.Locals(helperAuth.LocJWTClaims, claims)
		c.Locals(helperAuth.LocUserID, user.ID.String())
		c.Locals(helperAuth.LocRole, user.Role)
		c.Locals(helperAuth.LocCurrentUser, user)
		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx, cookieFallback bool) (string, error) {
	authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if authz == "" && cookieFallback {
		if tok := strings.TrimSpace(c.Cookies("access_token")); tok != "" {
			return tok, nil
		}
	}
	if authz == "" {
		return "", fmt.Errorf("no token provided")
	}
	fields := strings.Fields(authz)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("invalid token format")
	}
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("empty token")
	}
	return tok, nil
}

// userFromClaims reads id|sub|user_id, then role (or the first of roles).
func userFromClaims(claims jwt.MapClaims) (helperAuth.CurrentUser, error) {
	var u helperAuth.CurrentUser

	rawID := firstClaim(claims, "id", "sub", "user_id")
	id, err := uuid.Parse(rawID)
	if err != nil || id == uuid.Nil {
		return u, fmt.Errorf("invalid or missing user id")
	}
	u.ID = id

	u.Role = strings.ToLower(firstClaim(claims, "role"))
	if u.Role == "" {
		if roles, ok := claims["roles"].([]any); ok && len(roles) > 0 {
			if s, ok := roles[0].(string); ok {
				u.Role = strings.ToLower(strings.TrimSpace(s))
			}
		}
	}
	if u.Role == "" {
		return u, fmt.Errorf("missing role")
	}

	u.Name = firstClaim(claims, "name", "user_name")
	u.Email = firstClaim(claims, "email")
	u.Phone = firstClaim(claims, "phone", "contact_number")
	u.WWSID = firstClaim(claims, "wws_id")
	u.ServiceClass = strings.ToUpper(firstClaim(claims, "service_class"))
	return u, nil
}

func firstClaim(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}
