package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-ledger/models"

	"gorm.io/gorm"
)

// applyStreak folds a completion at now into u's streak fields and returns
// the streak bonus.
func (s *LedgerService) applyStreak(u *models.UserLedger, now time.Time) int64 {
	state := StreakState{
		Current:          u.GameStats.CurrentStreak,
		Longest:          u.GameStats.LongestStreak,
		LastCompletionAt: u.GameStats.LastCompletionAt,
		ProtectionUntil:  u.GameStats.StreakProtectionUntil,
	}
	next, bonus := s.Streaks.ApplyCompletion(state, now)
	u.GameStats.CurrentStreak = next.Current
	u.GameStats.LongestStreak = next.Longest
	u.GameStats.LastCompletionAt = next.LastCompletionAt
	u.GameStats.StreakProtectionUntil = next.ProtectionUntil
	return bonus
}

// markActive stamps lastActive and counts a new active day.
func (s *LedgerService) markActive(u *models.UserLedger, now time.Time) {
	if u.GameStats.LastActive == nil || !s.Streaks.SameDay(*u.GameStats.LastActive, now) {
		u.GameStats.DaysActive++
	}
	u.GameStats.LastActive = &now
}

// creditCompletion adds (base + streak bonus) XP scaled by the active boost,
// plus coins.
func creditCompletion(u *models.UserLedger, baseXP, bonus, coins int64, now time.Time) {
	xp := applyBoost(baseXP+bonus, u.GameStats.ActiveBoost(now))
	u.XP += xp
	u.GameStats.TotalXP += xp
	u.Coins += coins
}

// CompleteHabit records one completion of a habit owned by userID. A habit
// counts at most once per calendar day.
func (s *LedgerService) CompleteHabit(ctx context.Context, userID, habitID string) (*LedgerResult, error) {
	return s.mutate(ctx, models.EventHabitCompleted, userID, habitID, func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		var h models.Habit
		if err := tx.Where("id = ? AND user_id = ?", habitID, userID).First(&h).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHabitNotFound
			}
			return fmt.Errorf("load habit: %w", err)
		}
		if h.LastCompletedAt != nil && s.Streaks.SameDay(*h.LastCompletedAt, now) {
			return ErrAlreadyCompleted
		}

		bonus := s.applyStreak(u, now)
		s.markActive(u, now)
		creditCompletion(u, h.XPReward, bonus, h.CoinReward, now)
		u.GameStats.CompletedHabits++
		res.StreakBonus = bonus
		res.note = h.Title

		err := tx.Model(&h).Updates(map[string]interface{}{
			"completion_count":  gorm.Expr("completion_count + 1"),
			"last_completed_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("stamp habit: %w", err)
		}
		return s.awardQualifying(tx, u, res)
	})
}

// CompleteTask records the single completion of a task owned by userID.
func (s *LedgerService) CompleteTask(ctx context.Context, userID, taskID string) (*LedgerResult, error) {
	return s.mutate(ctx, models.EventTaskCompleted, userID, taskID, func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		var t models.Task
		if err := tx.Where("id = ? AND user_id = ?", taskID, userID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("load task: %w", err)
		}
		if t.CompletedAt != nil {
			return ErrAlreadyCompleted
		}

		bonus := s.applyStreak(u, now)
		s.markActive(u, now)
		creditCompletion(u, t.XPReward, bonus, t.CoinReward, now)
		u.GameStats.CompletedTasks++
		res.StreakBonus = bonus
		res.note = t.Title

		if err := tx.Model(&t).Update("completed_at", now).Error; err != nil {
			return fmt.Errorf("stamp task: %w", err)
		}
		return s.awardQualifying(tx, u, res)
	})
}

// GamePlay is one finished session reported by the game collaborator.
type GamePlay struct {
	GameID string `json:"game_id"`
	Score  int64  `json:"score"`
	XP     int64  `json:"xp"`
}

// RecordGamePlay bumps the per-game aggregate and credits the session XP.
func (s *LedgerService) RecordGamePlay(ctx context.Context, userID string, play GamePlay) (*LedgerResult, error) {
	if play.GameID == "" || play.XP < 0 || play.Score < 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutate(ctx, models.EventGamePlayed, userID, play.GameID, func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		stat := models.UserGameStat{UserID: userID, GameID: play.GameID}
		err := tx.Where("user_id = ? AND game_id = ?", userID, play.GameID).
			Attrs(models.UserGameStat{LastPlayed: now}).
			FirstOrCreate(&stat).Error
		if err != nil {
			return fmt.Errorf("load game stat: %w", err)
		}
		stat.Plays++
		stat.XP += play.XP
		if play.Score > stat.HighScore {
			stat.HighScore = play.Score
		}
		stat.LastPlayed = now
		if err := tx.Save(&stat).Error; err != nil {
			return fmt.Errorf("save game stat: %w", err)
		}

		s.markActive(u, now)
		xp := applyBoost(play.XP, u.GameStats.ActiveBoost(now))
		u.XP += xp
		u.GameStats.TotalXP += xp
		return s.awardQualifying(tx, u, res)
	})
}
