package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BadgeMetric names the progress counter a badge criterion reads.
type BadgeMetric string

const (
	MetricStreak          BadgeMetric = "streak"
	MetricTotalXP         BadgeMetric = "totalXP"
	MetricCompletedTasks  BadgeMetric = "completedTasks"
	MetricCompletedHabits BadgeMetric = "completedHabits"
	MetricGamesPlayed     BadgeMetric = "gamesPlayed"
	MetricDaysActive      BadgeMetric = "daysActive"
)

// Badge: admin-managed achievement definition. Read-only to the ledger.
type Badge struct {
	ID          string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"` // e.g. "week-warrior"
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	IconURL     string `gorm:"type:text" json:"icon_url"`
	Rarity      string `gorm:"type:varchar(16);default:'common'" json:"rarity"`

	CriteriaMetric    BadgeMetric `gorm:"type:varchar(32);not null" json:"criteria_metric"`
	CriteriaThreshold float64     `gorm:"not null" json:"criteria_threshold"`
	GameSpecific      *string     `gorm:"type:varchar(64)" json:"game_specific,omitempty"`

	XPReward   int64 `json:"xp_reward" gorm:"not null;default:0"`
	CoinReward int64 `json:"coin_reward" gorm:"not null;default:0"`

	Purchasable bool  `json:"purchasable" gorm:"not null"`
	Price       int64 `json:"price" gorm:"not null;default:0"`

	IsActive       bool       `json:"is_active" gorm:"not null;index"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	AvailableUntil *time.Time `json:"available_until,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (b *Badge) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	if b.Code == "" {
		b.Code = slug.Make(b.Name)
	}
	return nil
}

// IsAvailable reports whether the badge can be bought at now: active and,
// when a window is set, inside it.
func (b *Badge) IsAvailable(now time.Time) bool {
	if !b.IsActive {
		return false
	}
	if b.AvailableFrom != nil && now.Before(*b.AvailableFrom) {
		return false
	}
	if b.AvailableUntil != nil && now.After(*b.AvailableUntil) {
		return false
	}
	return true
}

// UserBadge: awarded instance (many-to-many). The composite unique index is
// the store-level guard against a badge being held twice.
type UserBadge struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string         `gorm:"uniqueIndex:idx_user_badge;not null;type:varchar(64)" json:"user_id"`
	BadgeID   string         `gorm:"uniqueIndex:idx_user_badge;not null;type:varchar(64)" json:"badge_id"`
	Source    string         `gorm:"type:varchar(16);not null" json:"source"` // earned, purchased, spin
	AwardedAt time.Time      `gorm:"autoCreateTime" json:"awarded_at"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"` // e.g. {"metric":"streak","value":7}
}

const (
	BadgeSourceEarned    = "earned"
	BadgeSourcePurchased = "purchased"
	BadgeSourceSpin      = "spin"
)

func (ub *UserBadge) BeforeCreate(tx *gorm.DB) error {
	newID(&ub.ID)
	return nil
}
