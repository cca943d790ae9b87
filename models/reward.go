package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RewardKind indicates what a reward component grants.
type RewardKind string

const (
	RewardXP    RewardKind = "xp"
	RewardCoins RewardKind = "coins"
	RewardGems  RewardKind = "gems"
	RewardItem  RewardKind = "item"
	RewardBadge RewardKind = "badge"
)

// IsPrimary reports whether the kind is one of the spin's guaranteed payouts.
func (k RewardKind) IsPrimary() bool {
	return k == RewardXP || k == RewardCoins
}

// RewardComponent is one configured payout of a tier. Numeric kinds use
// Min/Max (inclusive); item and badge kinds use Ref.
type RewardComponent struct {
	Kind RewardKind `toml:"kind" json:"kind"`
	Min  int64      `toml:"min" json:"min,omitempty"`
	Max  int64      `toml:"max" json:"max,omitempty"`
	Ref  string     `toml:"ref" json:"ref,omitempty"`
}

// RewardTier is a weighted bucket of the spin wheel.
type RewardTier struct {
	Name       string            `toml:"name" json:"name"`
	Label      string            `toml:"-" json:"label"`
	Weight     int               `toml:"weight" json:"weight"`
	Components []RewardComponent `toml:"components" json:"components"`
}

// RewardTable is the validated, ordered tier list loaded at startup.
type RewardTable struct {
	Tiers []RewardTier `toml:"tiers" json:"tiers"`
}

// TotalWeight is the probability denominator.
func (t *RewardTable) TotalWeight() int {
	total := 0
	for _, tier := range t.Tiers {
		total += tier.Weight
	}
	return total
}

// ResolvedReward is a component with its magnitude drawn.
type ResolvedReward struct {
	Kind   RewardKind `json:"kind"`
	Amount int64      `json:"amount,omitempty"`
	Ref    string     `json:"ref,omitempty"`
}

// SpinLog is written once per committed spin.
type SpinLog struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string         `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Tier      string         `gorm:"type:varchar(32);not null" json:"tier"`
	Rewards   datatypes.JSON `json:"rewards"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (s *SpinLog) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}
