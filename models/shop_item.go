package models

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Currency a shop item is priced in.
type Currency string

const (
	CurrencyCoins Currency = "coins"
	CurrencyGems  Currency = "gems"
)

// ItemEffect is applied to the buyer's ledger at purchase time.
type ItemEffect string

const (
	EffectNone             ItemEffect = ""
	EffectXPBoost          ItemEffect = "xp_boost"
	EffectStreakProtection ItemEffect = "streak_protection"
)

// ShopItem is the read model of the shop catalogue.
type ShopItem struct {
	ID        string   `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Code      string   `gorm:"uniqueIndex;not null" json:"code"`
	Name      string   `gorm:"not null" json:"name"`
	Currency  Currency `gorm:"type:varchar(8);not null" json:"currency"`
	Price     int64    `gorm:"not null" json:"price"`
	Stackable bool     `gorm:"not null" json:"stackable"`

	Effect              ItemEffect `gorm:"type:varchar(32)" json:"effect,omitempty"`
	BoostMultiplier     float64    `json:"boost_multiplier,omitempty"`
	EffectDurationHours int        `json:"effect_duration_hours,omitempty"`

	IsActive  bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *ShopItem) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	if s.Code == "" {
		s.Code = slug.Make(s.Name)
	}
	if s.Currency == "" {
		s.Currency = CurrencyCoins
	}
	return nil
}

// EffectDuration returns the configured effect duration.
func (s *ShopItem) EffectDuration() time.Duration {
	return time.Duration(s.EffectDurationHours) * time.Hour
}

// InventoryItem is one owned shop item; Quantity > 1 only for stackables.
type InventoryItem struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID     string    `gorm:"uniqueIndex:idx_user_item;not null;type:varchar(64)" json:"user_id"`
	ItemID     string    `gorm:"uniqueIndex:idx_user_item;not null;type:varchar(64)" json:"item_id"`
	Quantity   int64     `gorm:"not null;default:1" json:"quantity"`
	AcquiredAt time.Time `gorm:"autoCreateTime" json:"acquired_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	newID(&i.ID)
	return nil
}
