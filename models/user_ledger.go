package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserLedger is the authoritative XP / currency / streak record for one user.
// Writes go through services.LedgerService only; the leaderboard reads it.
type UserLedger struct {
	ID       string `gorm:"primaryKey;type:varchar(64)" json:"id"` // stable id from the auth collaborator
	Username string `gorm:"index" json:"username"`

	XP    int64 `json:"xp" gorm:"not null;default:0"`
	Level int   `json:"level" gorm:"not null;default:1"`
	Coins int64 `json:"coins" gorm:"not null;default:0"`
	Gems  int64 `json:"gems" gorm:"not null;default:0"`

	GameStats GameStats `gorm:"embedded" json:"game_stats"`

	Timestamps
}

// GameStats groups the counters the badge engine and leaderboards read.
type GameStats struct {
	TotalXP         int64 `json:"total_xp" gorm:"not null;default:0;index"`
	CurrentStreak   int   `json:"current_streak" gorm:"not null;default:0;index"`
	LongestStreak   int   `json:"longest_streak" gorm:"not null;default:0"`
	DaysActive      int64 `json:"days_active" gorm:"not null;default:0"`
	CompletedTasks  int64 `json:"completed_tasks" gorm:"not null;default:0"`
	CompletedHabits int64 `json:"completed_habits" gorm:"not null;default:0"`
	ShopPurchases   int64 `json:"shop_purchases" gorm:"not null;default:0"`
	TotalSpins      int64 `json:"total_spins" gorm:"not null;default:0"`

	LastActive       *time.Time `json:"last_active,omitempty" gorm:"index"`
	LastSpin         *time.Time `json:"last_spin,omitempty"`
	LastCompletionAt *time.Time `json:"last_completion_at,omitempty"`

	// Active XP boost; ignored once BoostExpiresAt has passed.
	BoostMultiplier float64    `json:"boost_multiplier,omitempty" gorm:"not null;default:0"`
	BoostExpiresAt  *time.Time `json:"boost_expires_at,omitempty"`

	// One-shot grant that forgives a single broken-streak gap.
	StreakProtectionUntil *time.Time `json:"streak_protection_until,omitempty"`
}

// ActiveBoost returns the XP multiplier in effect at now (1 when none).
func (g GameStats) ActiveBoost(now time.Time) float64 {
	if g.BoostMultiplier <= 0 || g.BoostExpiresAt == nil || !now.Before(*g.BoostExpiresAt) {
		return 1
	}
	return g.BoostMultiplier
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// newID fills an empty string primary key.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
