// handlers/leaderboard_routes.go
package handlers

import (
	"habit-ledger/middleware"
	"habit-ledger/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(secured fiber.Router, boards *services.LeaderboardService) {
	// GET /leaderboard?dimension=global_xp&scope=<game>&timeframe=weekly&limit=50
	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		dim, tf, err := boardParams(c)
		if err != nil {
			return respondError(c, err, "invalid leaderboard query")
		}
		entries, err := boards.Rank(c.UserContext(), dim, c.Query("scope"), c.QueryInt("limit", 50), tf)
		if err != nil {
			return respondError(c, err, "failed to rank leaderboard")
		}
		return c.JSON(fiber.Map{
			"dimension": dim,
			"timeframe": tf,
			"entries":   entries,
		})
	})

	secured.Get("/leaderboard/position", func(c *fiber.Ctx) error {
		dim, tf, err := boardParams(c)
		if err != nil {
			return respondError(c, err, "invalid leaderboard query")
		}
		entry, err := boards.UserPosition(c.UserContext(), middleware.UserID(c), dim, c.Query("scope"), tf)
		if err != nil {
			return respondError(c, err, "failed to compute position")
		}
		return c.JSON(entry)
	})
}

func boardParams(c *fiber.Ctx) (services.Dimension, services.Timeframe, error) {
	dim, err := services.ParseDimension(c.Query("dimension", string(services.DimensionGlobalXP)))
	if err != nil {
		return "", "", err
	}
	tf, err := services.ParseTimeframe(c.Query("timeframe"))
	if err != nil {
		return "", "", err
	}
	return dim, tf, nil
}
