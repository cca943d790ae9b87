package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-ledger/config"
	"habit-ledger/database"
	"habit-ledger/handlers"
	"habit-ledger/middleware"
	"habit-ledger/services"
	"habit-ledger/utils"
	"habit-ledger/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerd",
	Short:         "Gamification ledger service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and maintenance jobs",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed the default catalogue",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	serveCmd.Flags().Bool("migrate", true, "run migrations before serving")
	migrateCmd.Flags().Bool("seed", true, "insert default badges and shop items")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		utils.LogError("%v", err)
		os.Exit(1)
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		if err := database.Seed(db); err != nil {
			return err
		}
	}
	utils.LogSuccess("✅ Migrations applied")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}

	rewards, err := config.LoadRewardTable(ctx, cfg)
	if err != nil {
		return fmt.Errorf("reward table: %w", err)
	}
	policy, err := services.ParseStreakResetPolicy(cfg.StreakResetPolicy)
	if err != nil {
		return err
	}

	ledger := services.NewLedgerService(db, services.LedgerConfig{
		Rewards:      rewards,
		Streaks:      services.NewStreakTracker(cfg.Location, policy),
		SpinCooldown: cfg.SpinCooldown,
	})
	boards := services.NewLeaderboardService(db, cfg.Location)
	revocations := services.NewRevocationService(db)

	maintenance := services.NewMaintenanceService(db)
	if err := maintenance.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer maintenance.Stop()

	if cfg.ProfileSyncURL != "" {
		workers.NewProfileSyncWorker(db, cfg.ProfileSyncURL, cfg.ProfileSyncPath, cfg.ProfileSyncToken).Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      "ledgerd",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Service-Token",
		AllowCredentials: cfg.AllowedOrigins != "*",
		MaxAge:           86400,
	}))

	handlers.Setup(app, handlers.Deps{
		Ledger:       ledger,
		Leaderboards: boards,
		Revocations:  revocations,
		JWTSecret:    cfg.JWTSecret,
		ServiceToken: cfg.ServiceToken,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			utils.LogError("Server error: %v", err)
			stop()
		}
	}()

	utils.LogSuccess("✅ Server running on http://localhost:%s", cfg.Port)
	utils.LogInfo("✅ Reward table: %d tiers, total weight %d", len(rewards.Tiers), rewards.TotalWeight())
	utils.LogInfo("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	utils.LogInfo("Shutting down server...")
	return app.ShutdownWithTimeout(5 * time.Second)
}
