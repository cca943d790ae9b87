package services

import (
	"fmt"

	"habit-ledger/models"
)

// BadgeSet holds badge ids.
type BadgeSet map[string]struct{}

func (s BadgeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s BadgeSet) Add(id string) { s[id] = struct{}{} }

// ProgressSnapshot is the read-only view badge criteria are evaluated on.
type ProgressSnapshot struct {
	CurrentStreak   int
	TotalXP         int64
	CompletedTasks  int64
	CompletedHabits int64
	DaysActive      int64
	GamesPlayed     map[string]int64 // plays per game id
	Held            BadgeSet
}

// SnapshotOf builds a snapshot from a ledger row plus the per-game plays and
// held badges loaded alongside it.
func SnapshotOf(u *models.UserLedger, plays map[string]int64, held BadgeSet) ProgressSnapshot {
	if held == nil {
		held = BadgeSet{}
	}
	return ProgressSnapshot{
		CurrentStreak:   u.GameStats.CurrentStreak,
		TotalXP:         u.GameStats.TotalXP,
		CompletedTasks:  u.GameStats.CompletedTasks,
		CompletedHabits: u.GameStats.CompletedHabits,
		DaysActive:      u.GameStats.DaysActive,
		GamesPlayed:     plays,
		Held:            held,
	}
}

// MetricValue reads the counter a badge criterion names. An unrecognized
// metric reads as 0 alongside ErrInvalidMetric.
func (p ProgressSnapshot) MetricValue(b *models.Badge) (float64, error) {
	switch b.CriteriaMetric {
	case models.MetricStreak:
		return float64(p.CurrentStreak), nil
	case models.MetricTotalXP:
		return float64(p.TotalXP), nil
	case models.MetricCompletedTasks:
		return float64(p.CompletedTasks), nil
	case models.MetricCompletedHabits:
		return float64(p.CompletedHabits), nil
	case models.MetricDaysActive:
		return float64(p.DaysActive), nil
	case models.MetricGamesPlayed:
		if b.GameSpecific == nil || *b.GameSpecific == "" {
			var total int64
			for _, n := range p.GamesPlayed {
				total += n
			}
			return float64(total), nil
		}
		return float64(p.GamesPlayed[*b.GameSpecific]), nil
	}
	return 0, fmt.Errorf("%w: %q on badge %s", ErrInvalidMetric, b.CriteriaMetric, b.Code)
}

// QualifyingBadges returns the active, unheld candidates whose criterion is
// met, in candidate order.
func QualifyingBadges(snap ProgressSnapshot, candidates []models.Badge) []models.Badge {
	var out []models.Badge
	for i := range candidates {
		b := &candidates[i]
		if !b.IsActive || snap.Held.Has(b.ID) {
			continue
		}
		v, err := snap.MetricValue(b)
		if err != nil {
			continue
		}
		if v >= b.CriteriaThreshold {
			out = append(out, *b)
		}
	}
	return out
}

// AwardBadges adds every qualifying badge to held (skipping duplicates) and
// credits its rewards to u. The caller persists both.
func AwardBadges(u *models.UserLedger, held BadgeSet, qualifying []models.Badge) (awarded []models.Badge, xp, coins int64) {
	for _, b := range qualifying {
		if held.Has(b.ID) {
			continue
		}
		held.Add(b.ID)
		awarded = append(awarded, b)
		xp += b.XPReward
		coins += b.CoinReward
	}
	u.XP += xp
	u.GameStats.TotalXP += xp
	u.Coins += coins
	u.Level = LevelForXP(u.XP)
	return awarded, xp, coins
}
