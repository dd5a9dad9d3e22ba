package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"imovelhub/internal/pkg/response"
)

// CORS returns a Fiber handler that allows localhost origins and origins
// ending with allowedSuffix. Credentials allowed.
func CORS(allowedSuffix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		// No origin (same-origin or tools): allow
		if origin == "" {
			return c.Next()
		}
		localhost := strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
		allowed := localhost ||
			(allowedSuffix != "" && strings.HasSuffix(strings.ToLower(origin), strings.ToLower(allowedSuffix)))
		if !allowed {
			return response.Error(c, "Not allowed by CORS", fiber.StatusForbidden)
		}
		c.Set("Access-Control-Allow-Origin", origin)
		c.Set("Access-Control-Allow-Credentials", "true")
		c.Set("Access-Control-Allow-Headers", "Content-Type, X-Owner-User, X-Owner-Org")
		c.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	}
}
