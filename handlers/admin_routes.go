// handlers/admin_routes.go
package handlers

import (
	"time"

	"habit-ledger/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes mounts internal grant endpoints; admin is already behind
// ServiceTokenMiddleware.
func SetupAdminRoutes(admin fiber.Router, ledger *services.LedgerService) {
	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and xp are required"})
		}
		res, err := ledger.GrantXP(c.UserContext(), req.UserID, req.XP, req.Reason)
		if err != nil {
			return respondError(c, err, "failed to grant xp")
		}
		return c.JSON(res)
	})

	admin.Post("/streak-protection", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Hours  int    `json:"hours"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil || req.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id and hours are required"})
		}
		res, err := ledger.GrantStreakProtection(c.UserContext(), req.UserID, time.Duration(req.Hours)*time.Hour, req.Reason)
		if err != nil {
			return respondError(c, err, "failed to grant streak protection")
		}
		return c.JSON(res)
	})
}
