// config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the service reads from the environment.
type Config struct {
	DatabaseURL    string
	DBDriver       string // postgres | sqlite
	Port           string
	AllowedOrigins string

	JWTSecret    string
	ServiceToken string

	Location          *time.Location
	StreakResetPolicy string
	SpinCooldown      time.Duration

	RewardTablePath   string
	RewardTableBucket string
	RewardTableKey    string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string

	// Optional profile-service feed; empty URL disables the sync worker.
	ProfileSyncURL   string
	ProfileSyncPath  string
	ProfileSyncToken string
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBDriver:          envOr("DB_DRIVER", "postgres"),
		Port:              envOr("PORT", "5200"),
		AllowedOrigins:    normalizeOrigins(envOr("ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ServiceToken:      os.Getenv("SERVICE_TOKEN"),
		StreakResetPolicy: envOr("STREAK_RESET_POLICY", "one"),
		RewardTablePath:   os.Getenv("REWARD_TABLE_PATH"),
		RewardTableBucket: os.Getenv("REWARD_TABLE_BUCKET"),
		RewardTableKey:    os.Getenv("REWARD_TABLE_KEY"),
		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		ProfileSyncURL:    os.Getenv("PROFILE_SYNC_URL"),
		ProfileSyncPath:   envOr("PROFILE_SYNC_PATH", "/api/v1/public/profiles"),
		ProfileSyncToken:  os.Getenv("PROFILE_SYNC_TOKEN"),
	}

	loc, err := time.LoadLocation(envOr("LEDGER_TIMEZONE", "UTC"))
	if err != nil {
		return cfg, fmt.Errorf("LEDGER_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.SpinCooldown, err = time.ParseDuration(envOr("SPIN_COOLDOWN", "24h"))
	if err != nil {
		return cfg, fmt.Errorf("SPIN_COOLDOWN: %w", err)
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return cfg, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	return cfg, nil
}

// RequireServer checks the settings only `serve` needs.
func (c Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("SERVICE_TOKEN environment variable not set")
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// normalizeOrigins trims each comma-separated origin.
func normalizeOrigins(raw string) string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}
