package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/pkg/jwt"
)

// Clés Locals Fiber.
const (
	LocalUserID = "user_id"
	LocalEmail  = "email"
	localError  = "error"
)

// AuthMiddleware valide le Bearer Token JWT et place UserID et Email dans c.Locals.
func AuthMiddleware(jwtSecret, audience string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "en-tête Authorization requis")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "format : Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return fail(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "jeton vide")
		}
		userID, email, err := jwt.Parse(jwtSecret, audience, tokenString)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "jeton invalide ou expiré")
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalEmail, email)
		return c.Next()
	}
}

// GetUserID renvoie l'utilisateur authentifié (après AuthMiddleware).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// GetEmail renvoie l'email du jeton.
func GetEmail(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalEmail).(string)
	return s
}
