package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helperAuth "waterworks_backend/internals/helpers/auth"
)

const testSecret = "test-secret"

func sign(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func newApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append([]fiber.Handler{AuthJWT(AuthJWTOpts{Secret: testSecret})}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		u, err := helperAuth.GetCurrentUser(c)
		if err != nil {
			return err
		}
		return c.SendString(u.Role + ":" + u.WWSID + ":" + u.ServiceClass)
	})
	app.Get("/me", chain...)
	return app
}

func do(t *testing.T, app *fiber.App, token string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	return resp, string(buf[:n])
}

func TestAuthJWTHydratesCurrentUser(t *testing.T) {
	tok := sign(t, jwt.MapClaims{
		"sub":           uuid.NewString(),
		"role":          "Client",
		"wws_id":        "WWS-0042",
		"service_class": "commercial",
		"exp":           time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	resp, body := do(t, newApp(), tok)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "client:WWS-0042:COMMERCIAL", body)
}

func TestAuthJWTRejects(t *testing.T) {
	valid := jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}
	cases := map[string]string{
		"missing":      "",
		"wrong secret": sign(t, valid, "other"),
		"expired":      sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret),
		"no user id":   sign(t, jwt.MapClaims{"role": "admin"}, testSecret),
		"no role":      sign(t, jwt.MapClaims{"id": uuid.NewString()}, testSecret),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := do(t, newApp(), tok)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRolesArrayFallback(t *testing.T) {
	tok := sign(t, jwt.MapClaims{"user_id": uuid.NewString(), "roles": []any{"staff", "client"}}, testSecret)
	resp, body := do(t, newApp(), tok)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "staff::", body)
}

func TestOnlyRoles(t *testing.T) {
	app := newApp(OnlyRoles("admins only", "admin"))

	resp, _ := do(t, app, sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "client"}, testSecret))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, app, sign(t, jwt.MapClaims{"id": uuid.NewString(), "role": "ADMIN"}, testSecret))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
