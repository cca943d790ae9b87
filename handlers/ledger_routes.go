// handlers/ledger_routes.go
package handlers

import (
	"strconv"

	"habit-ledger/middleware"
	"habit-ledger/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLedgerRoutes(secured fiber.Router, ledger *services.LedgerService, revocations *services.RevocationService) {
	secured.Get("/user/ledger", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		username, _ := c.Locals("username").(string)
		if _, err := ledger.EnsureLedger(c.UserContext(), userID, username); err != nil {
			return respondError(c, err, "failed to create ledger")
		}
		view, err := ledger.GetLedger(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err, "failed to fetch ledger")
		}
		return c.JSON(view)
	})

	secured.Get("/user/ledger/history", func(c *fiber.Ctx) error {
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := ledger.History(c.UserContext(), middleware.UserID(c), page, size)
		if err != nil {
			return respondError(c, err, "failed to fetch history")
		}
		return c.JSON(history)
	})

	secured.Post("/user/habits/:id/complete", func(c *fiber.Ctx) error {
		res, err := ledger.CompleteHabit(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err, "failed to complete habit")
		}
		return c.JSON(res)
	})

	secured.Post("/user/tasks/:id/complete", func(c *fiber.Ctx) error {
		res, err := ledger.CompleteTask(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err, "failed to complete task")
		}
		return c.JSON(res)
	})

	secured.Post("/user/games/:id/play", func(c *fiber.Ctx) error {
		var req struct {
			Score int64 `json:"score"`
			XP    int64 `json:"xp"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		res, err := ledger.RecordGamePlay(c.UserContext(), middleware.UserID(c), services.GamePlay{
			GameID: c.Params("id"),
			Score:  req.Score,
			XP:     req.XP,
		})
		if err != nil {
			return respondError(c, err, "failed to record game play")
		}
		return c.JSON(res)
	})

	secured.Post("/user/spin", func(c *fiber.Ctx) error {
		res, err := ledger.Spin(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "spin rejected")
		}
		return c.JSON(res)
	})

	secured.Post("/user/badges/check", func(c *fiber.Ctx) error {
		res, err := ledger.CheckAndAwardBadges(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err, "failed to check badges")
		}
		return c.JSON(res)
	})

	secured.Post("/user/badges/:id/purchase", func(c *fiber.Ctx) error {
		res, err := ledger.PurchaseBadge(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err, "failed to purchase badge")
		}
		return c.JSON(res)
	})

	secured.Post("/user/shop/:id/purchase", func(c *fiber.Ctx) error {
		res, err := ledger.PurchaseItem(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err, "failed to purchase item")
		}
		return c.JSON(res)
	})

	secured.Post("/auth/logout", func(c *fiber.Ctx) error {
		jti, _ := c.Locals("token_id").(string)
		if err := revocations.Revoke(c.UserContext(), jti, middleware.UserID(c), middleware.TokenExpiry(c)); err != nil {
			return respondError(c, err, "failed to log out")
		}
		return c.JSON(fiber.Map{"message": "Logged out"})
	})
}
