package models

import (
	"time"

	"gorm.io/gorm"
)

// UserGameStat aggregates one user's plays of one game. It feeds the
// gamesPlayed badge metric and the per-game leaderboards.
type UserGameStat struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID     string    `gorm:"uniqueIndex:idx_user_game;not null;type:varchar(64)" json:"user_id"`
	GameID     string    `gorm:"uniqueIndex:idx_user_game;index;not null;type:varchar(64)" json:"game_id"`
	Plays      int64     `gorm:"not null;default:0" json:"plays"`
	HighScore  int64     `gorm:"not null;default:0" json:"high_score"`
	XP         int64     `gorm:"not null;default:0" json:"xp"`
	LastPlayed time.Time `gorm:"index" json:"last_played"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *UserGameStat) BeforeCreate(tx *gorm.DB) error {
	newID(&g.ID)
	return nil
}
