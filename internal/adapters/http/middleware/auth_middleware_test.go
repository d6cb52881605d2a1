package middleware

import (
	"net/http/httptest"
	"testing"

	"makerhub-api/internal/config"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testApp(handlers ...fiber.Handler) *fiber.App {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	app := fiber.New()
	chain := append([]fiber.Handler{AuthMiddleware(cfg)}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID"), "email": c.Locals("email")})
	})
	app.Get("/", chain...)
	return app
}

func bearer(t *testing.T, role domain.Role, expiryMins int) string {
	token, err := jwt.GenerateAccessToken(7, "ana@example.com", string(role), testSecret, expiryMins)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestAuthMiddleware(t *testing.T) {
	app := testApp()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", fiber.StatusUnauthorized},
		{"garbage token", "Bearer nope", fiber.StatusUnauthorized},
		{"expired token", bearer(t, domain.RoleCustomer, -1), fiber.StatusUnauthorized},
		{"valid token", bearer(t, domain.RoleCustomer, 5), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_Cookie(t *testing.T) {
	app := testApp()
	token, err := jwt.GenerateAccessToken(7, "ana@example.com", "CUSTOMER", testSecret, 5)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderCookie, "access_token="+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequirePermission(t *testing.T) {
	app := testApp(RequirePermission(domain.ActionReviewReturn))

	tests := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleCustomer, fiber.StatusForbidden},
		{domain.RoleStaff, fiber.StatusOK},
		{domain.RoleAdmin, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			req.Header.Set(fiber.HeaderAuthorization, bearer(t, tt.role, 5))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestRequirePermission_AdminOnlyAction(t *testing.T) {
	app := testApp(RequirePermission(domain.ActionManageUsers))

	tests := []struct {
		role domain.Role
		want int
	}{
		{domain.RoleCustomer, fiber.StatusForbidden},
		{domain.RoleStaff, fiber.StatusForbidden},
		{domain.RoleAdmin, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/", nil)
			req.Header.Set(fiber.HeaderAuthorization, bearer(t, tt.role, 5))
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestOptionalAuth_IgnoresBadToken(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	app := fiber.New()
	app.Get("/", OptionalAuth(cfg), func(c *fiber.Ctx) error {
		_, signedIn := c.Locals("userID").(uint)
		return c.JSON(fiber.Map{"signed_in": signedIn})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer nope")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
