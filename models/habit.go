package models

import (
	"time"

	"gorm.io/gorm"
)

// Habit is owned by the CRUD collaborator; the ledger only reads the
// rewards and stamps the completion.
type Habit struct {
	ID              string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID          string     `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Title           string     `gorm:"not null" json:"title"`
	XPReward        int64      `gorm:"not null;default:0" json:"xp_reward"`
	CoinReward      int64      `gorm:"not null;default:0" json:"coin_reward"`
	CompletionCount int64      `gorm:"not null;default:0" json:"completion_count"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`

	Timestamps
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	newID(&h.ID)
	return nil
}

// Task completes at most once.
type Task struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string     `gorm:"index;not null;type:varchar(64)" json:"user_id"`
	Title       string     `gorm:"not null" json:"title"`
	XPReward    int64      `gorm:"not null;default:0" json:"xp_reward"`
	CoinReward  int64      `gorm:"not null;default:0" json:"coin_reward"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Timestamps
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}
