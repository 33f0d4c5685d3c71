package user

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
)

// NewAuthMiddleware builds the JWT middleware that fronts the admin surface.
// Reads and the auth endpoints stay public. Missing, malformed and invalid
// tokens are indistinguishable to the caller: every failure is the same 401
// envelope.
func NewAuthMiddleware(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		Filter: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodGet || strings.HasPrefix(c.Path(), "/auth/")
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
		},
	})
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token the
// middleware stored in `c.Locals("user")`.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

// GetRoleFromCtx extracts the role claim from the verified token.
func GetRoleFromCtx(c *fiber.Ctx) (string, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return "", err
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	return role, nil
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	u := c.Locals("user")
	if u == nil {
		return nil, fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// RequireAdmin guards admin routes. It always runs after the JWT middleware
// has verified the token; a non-admin role claim is a Forbidden, a missing
// token an Unauthorized.
func RequireAdmin(c *fiber.Ctx) error {
	role, err := GetRoleFromCtx(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "unauthorized"})
	}
	if role != RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "admin access required"})
	}
	return c.Next()
}
