// middleware/gateway.go
package middleware

import (
	"crypto/subtle"

	"habit-ledger/utils"

	"github.com/gofiber/fiber/v2"
)

// ServiceTokenMiddleware admits internal callers presenting X-Service-Token.
func ServiceTokenMiddleware(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get("X-Service-Token")
		if token == "" {
			utils.LogWarn("🚫 [SERVICE_AUTH] missing X-Service-Token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "service token missing",
			})
		}
		if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			utils.LogWarn("❌ [SERVICE_AUTH] invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid service token",
			})
		}
		return c.Next()
	}
}
