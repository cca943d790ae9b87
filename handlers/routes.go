// handlers/routes.go
package handlers

import (
	"habit-ledger/middleware"
	"habit-ledger/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP surface calls into.
type Deps struct {
	Ledger       *services.LedgerService
	Leaderboards *services.LeaderboardService
	Revocations  *services.RevocationService
	JWTSecret    string
	ServiceToken string
}

// Setup mounts every route. Public and admin routes are registered before
// the secured group so its middleware never runs for them.
func Setup(app *fiber.App, d Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// 🔐 Internal callers only
	admin := app.Group("/s/admin", middleware.ServiceTokenMiddleware(d.ServiceToken))
	SetupAdminRoutes(admin, d.Ledger)

	// 🔐 Bearer-authenticated users
	secured := app.Group("/", middleware.UserContextMiddleware(d.JWTSecret, d.Revocations))
	SetupLedgerRoutes(secured, d.Ledger, d.Revocations)
	SetupLeaderboardRoutes(secured, d.Leaderboards)
}
