package middleware

import (
	"errors"
	"strings"

	"makerhub-api/internal/config"
	"makerhub-api/internal/core/domain"
	"makerhub-api/internal/pkg/jwt"
	"makerhub-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// accessTokenFrom prefers the cookie, then the Authorization header
func accessTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func setUser(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals("userID", claims.UserID)
	c.Locals("email", claims.Email)
	c.Locals("role", claims.Role)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := accessTokenFrom(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setUser(c, claims)
		return c.Next()
	}
}

// OptionalAuth doesn't require auth but sets user info when a valid token is present
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := accessTokenFrom(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setUser(c, claims)
			}
		}
		return c.Next()
	}
}

// RequirePermission lets the request through when the caller's role may perform action
func RequirePermission(action domain.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !domain.Can(domain.Role(role), action) {
			return response.Forbidden(c, "You do not have permission to perform this action")
		}
		return c.Next()
	}
}
