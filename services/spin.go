package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habit-ledger/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var errEmptyRewardTable = errors.New("reward table has no tiers")

// Spin turns the wheel once. The cooldown check, the reward application and
// the lastSpin stamp commit or roll back together.
func (s *LedgerService) Spin(ctx context.Context, userID string) (*LedgerResult, error) {
	res, err := s.mutate(ctx, models.EventSpin, userID, "", func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		if last := u.GameStats.LastSpin; last != nil {
			if wait := last.Add(s.SpinCooldown).Sub(now); wait > 0 {
				return &CooldownError{Remaining: wait}
			}
		}
		if s.Rewards == nil {
			return errEmptyRewardTable
		}
		tier := SelectTier(s.Rewards, s.rng)
		if tier == nil {
			return errEmptyRewardTable
		}
		rewards := Materialize(tier, s.rng)

		for _, r := range rewards {
			if err := s.applySpinReward(tx, u, res, r, now); err != nil {
				return err
			}
		}
		u.GameStats.LastSpin = &now
		u.GameStats.TotalSpins++

		payload, err := json.Marshal(rewards)
		if err != nil {
			return err
		}
		spinLog := models.SpinLog{UserID: u.ID, Tier: tier.Name, Rewards: datatypes.JSON(payload)}
		if err := tx.Create(&spinLog).Error; err != nil {
			return fmt.Errorf("write spin log: %w", err)
		}

		res.Spin = &SpinOutcome{Tier: tier.Name, Label: tier.Label, Rewards: rewards}
		res.note = tier.Name
		return nil
	})
	if err != nil {
		return nil, err
	}
	spinTiers.WithLabelValues(res.Spin.Tier).Inc()
	return res, nil
}

// applySpinReward credits one resolved reward. Won items take effect at
// once, as if bought; inactive badges are skipped.
func (s *LedgerService) applySpinReward(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, r models.ResolvedReward, now time.Time) error {
	switch r.Kind {
	case models.RewardXP:
		u.XP += r.Amount
		u.GameStats.TotalXP += r.Amount
	case models.RewardCoins:
		u.Coins += r.Amount
	case models.RewardGems:
		u.Gems += r.Amount
	case models.RewardItem:
		item, err := findItem(tx, r.Ref)
		if err != nil {
			return err
		}
		added, err := addInventory(tx, u.ID, item)
		if err != nil {
			return err
		}
		if added {
			applyEffect(u, item, now)
		}
	case models.RewardBadge:
		var b models.Badge
		if err := tx.Where("id = ? OR code = ?", r.Ref, r.Ref).First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrBadgeNotFound, r.Ref)
			}
			return err
		}
		held, err := heldBadges(tx, u.ID)
		if err != nil {
			return err
		}
		if !b.IsActive || held.Has(b.ID) {
			return nil
		}
		ub := models.UserBadge{UserID: u.ID, BadgeID: b.ID, Source: models.BadgeSourceSpin}
		if err := tx.Create(&ub).Error; err != nil {
			return fmt.Errorf("award badge %s: %w", b.Code, err)
		}
		res.BadgesEarned = append(res.BadgesEarned, b)
	}
	return nil
}
