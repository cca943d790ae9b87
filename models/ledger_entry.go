package models

import (
	"time"

	"gorm.io/gorm"
)

// LedgerEvent is the game event that produced a ledger entry.
type LedgerEvent string

const (
	EventHabitCompleted   LedgerEvent = "habit_completed"
	EventTaskCompleted    LedgerEvent = "task_completed"
	EventGamePlayed       LedgerEvent = "game_played"
	EventSpin             LedgerEvent = "spin"
	EventBadgeCheck       LedgerEvent = "badge_check"
	EventItemPurchase     LedgerEvent = "item_purchase"
	EventBadgePurchase    LedgerEvent = "badge_purchase"
	EventXPGrant          LedgerEvent = "xp_grant"
	EventStreakProtection LedgerEvent = "streak_protection"
)

// LedgerEntry is an append-only audit row, written in the same transaction
// as the mutation it describes.
type LedgerEntry struct {
	ID        string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string      `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Event     LedgerEvent `gorm:"type:varchar(32);not null" json:"event"`
	XPDelta   int64       `json:"xp_delta"`
	CoinDelta int64       `json:"coin_delta"`
	GemDelta  int64       `json:"gem_delta"`
	RefID     string      `gorm:"type:varchar(64)" json:"ref_id,omitempty"`
	Note      string      `json:"note,omitempty"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	newID(&e.ID)
	return nil
}
