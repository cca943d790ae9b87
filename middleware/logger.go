package middleware

import (
	"time"

	"habit-ledger/utils"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger prints one line per request after the handler chain runs.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		utils.LogRequest(c.Method(), c.OriginalURL(), c.IP(), status, time.Since(start))
		return err
	}
}
