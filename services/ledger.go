// services/ledger.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habit-ledger/models"
	"habit-ledger/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultSpinCooldown = 24 * time.Hour

// LedgerConfig holds the startup-validated inputs of the coordinator.
type LedgerConfig struct {
	Rewards      *models.RewardTable
	Streaks      StreakTracker
	SpinCooldown time.Duration
	Rand         RandSource       // nil: PCG seeded from the runtime
	Now          func() time.Time // nil: time.Now in UTC
}

// LedgerService is the only writer of UserLedger rows. Every exported
// mutation runs as one transaction holding the user's row lock.
type LedgerService struct {
	DB           *gorm.DB
	Rewards      *models.RewardTable
	Streaks      StreakTracker
	SpinCooldown time.Duration

	now func() time.Time
	rng *lockedRand
}

func NewLedgerService(db *gorm.DB, cfg LedgerConfig) *LedgerService {
	s := &LedgerService{
		DB:           db,
		Rewards:      cfg.Rewards,
		Streaks:      cfg.Streaks,
		SpinCooldown: cfg.SpinCooldown,
		now:          cfg.Now,
		rng:          newLockedRand(cfg.Rand),
	}
	if s.SpinCooldown <= 0 {
		s.SpinCooldown = DefaultSpinCooldown
	}
	if s.Streaks.Location == nil {
		s.Streaks.Location = time.UTC
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SpinOutcome is the wheel part of a LedgerResult.
type SpinOutcome struct {
	Tier    string                  `json:"tier"`
	Label   string                  `json:"label"`
	Rewards []models.ResolvedReward `json:"rewards"`
}

// LedgerResult is returned by every committed mutation.
type LedgerResult struct {
	Before       models.UserLedger `json:"before"`
	After        models.UserLedger `json:"after"`
	XPGained     int64             `json:"xp_gained"`
	CoinsGained  int64             `json:"coins_gained"`
	GemsGained   int64             `json:"gems_gained"`
	StreakBonus  int64             `json:"streak_bonus"`
	LevelUp      *int              `json:"level_up"`
	BadgesEarned []models.Badge    `json:"badges_earned"`
	Spin         *SpinOutcome      `json:"spin,omitempty"`

	note string
}

// mutation is one step-2/3 body run under the user lock. It edits u in
// place; mutate enforces bounds, level, persistence and the audit row.
type mutation func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error

func (s *LedgerService) mutate(ctx context.Context, event models.LedgerEvent, userID, refID string, fn mutation) (*LedgerResult, error) {
	now := s.now()
	res := &LedgerResult{BadgesEarned: []models.Badge{}}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		res.Before = *u

		if err := fn(tx, u, res, now); err != nil {
			return err
		}

		if u.XP < 0 || u.Coins < 0 || u.Gems < 0 {
			return ErrInsufficientFunds
		}
		u.Level = LevelForXP(u.XP)
		if u.Level > res.Before.Level {
			lvl := u.Level
			res.LevelUp = &lvl
		}

		if err := tx.Save(u).Error; err != nil {
			return fmt.Errorf("save ledger: %w", err)
		}
		res.After = *u
		res.XPGained = u.XP - res.Before.XP
		res.CoinsGained = u.Coins - res.Before.Coins
		res.GemsGained = u.Gems - res.Before.Gems

		entry := models.LedgerEntry{
			UserID:    u.ID,
			Event:     event,
			XPDelta:   res.XPGained,
			CoinDelta: res.CoinsGained,
			GemDelta:  res.GemsGained,
			RefID:     refID,
			Note:      res.note,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})

	err = classifyStoreError(err)
	ledgerOperations.WithLabelValues(string(event), outcomeOf(err)).Inc()
	if err != nil {
		if !isExpected(err) {
			utils.LogError("[Ledger] %s for %s failed: %v", event, userID, err)
		}
		return nil, err
	}

	if res.LevelUp != nil {
		levelUps.Inc()
		utils.LogSuccess("[Ledger] 🎉 %s reached level %d", userID, *res.LevelUp)
	}
	if n := len(res.BadgesEarned); n > 0 {
		badgesAwarded.Add(float64(n))
	}
	return res, nil
}

// lockUser loads the ledger row; on Postgres it holds FOR UPDATE until the
// transaction ends.
func lockUser(tx *gorm.DB, userID string) (*models.UserLedger, error) {
	var u models.UserLedger
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	return &u, nil
}

// EnsureLedger creates the ledger row on first sight of a user (idempotent).
func (s *LedgerService) EnsureLedger(ctx context.Context, userID, username string) (*models.UserLedger, error) {
	db := s.DB.WithContext(ctx)
	u := models.UserLedger{ID: userID, Username: username, Level: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&u).Error; err != nil {
		return nil, classifyStoreError(err)
	}
	if err := db.Where("id = ?", userID).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// awardQualifying runs badge qualification against u as it stands inside tx
// and persists the new UserBadge rows. Rewards land on u.
func (s *LedgerService) awardQualifying(tx *gorm.DB, u *models.UserLedger, res *LedgerResult) error {
	held, err := heldBadges(tx, u.ID)
	if err != nil {
		return err
	}
	plays, err := gamePlays(tx, u.ID)
	if err != nil {
		return err
	}
	var candidates []models.Badge
	if err := tx.Where("is_active = ?", true).Order("created_at ASC, id ASC").Find(&candidates).Error; err != nil {
		return fmt.Errorf("load badges: %w", err)
	}

	snap := SnapshotOf(u, plays, held)
	awarded, _, _ := AwardBadges(u, held, QualifyingBadges(snap, candidates))
	for i := range awarded {
		b := &awarded[i]
		value, _ := snap.MetricValue(b)
		meta, _ := json.Marshal(map[string]interface{}{
			"metric":    b.CriteriaMetric,
			"threshold": b.CriteriaThreshold,
			"value":     value,
		})
		ub := models.UserBadge{UserID: u.ID, BadgeID: b.ID, Source: models.BadgeSourceEarned, Metadata: datatypes.JSON(meta)}
		if err := tx.Create(&ub).Error; err != nil {
			return fmt.Errorf("award badge %s: %w", b.Code, err)
		}
		utils.LogSuccess("[Ledger] 🎖️ Badge awarded: %s → %s", b.Name, u.ID)
	}
	res.BadgesEarned = append(res.BadgesEarned, awarded...)
	return nil
}

func heldBadges(tx *gorm.DB, userID string) (BadgeSet, error) {
	var ids []string
	if err := tx.Model(&models.UserBadge{}).Where("user_id = ?", userID).Pluck("badge_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load held badges: %w", err)
	}
	held := make(BadgeSet, len(ids))
	for _, id := range ids {
		held.Add(id)
	}
	return held, nil
}

func gamePlays(tx *gorm.DB, userID string) (map[string]int64, error) {
	var stats []models.UserGameStat
	if err := tx.Where("user_id = ?", userID).Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("load game stats: %w", err)
	}
	plays := make(map[string]int64, len(stats))
	for _, st := range stats {
		plays[st.GameID] = st.Plays
	}
	return plays, nil
}

// CheckAndAwardBadges grants every badge the user now qualifies for.
func (s *LedgerService) CheckAndAwardBadges(ctx context.Context, userID string) (*LedgerResult, error) {
	return s.mutate(ctx, models.EventBadgeCheck, userID, "", func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		return s.awardQualifying(tx, u, res)
	})
}

// GrantXP credits XP outside any game event (admin grants).
func (s *LedgerService) GrantXP(ctx context.Context, userID string, xp int64, reason string) (*LedgerResult, error) {
	if xp <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutate(ctx, models.EventXPGrant, userID, "", func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		u.XP += xp
		u.GameStats.TotalXP += xp
		res.note = reason
		return s.awardQualifying(tx, u, res)
	})
}

// GrantStreakProtection forgives the next broken gap seen before now+d.
// Overlapping grants extend from the later expiry.
func (s *LedgerService) GrantStreakProtection(ctx context.Context, userID string, d time.Duration, reason string) (*LedgerResult, error) {
	if d <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mutate(ctx, models.EventStreakProtection, userID, "", func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		extendProtection(&u.GameStats, now, d)
		res.note = reason
		return nil
	})
}

func extendProtection(g *models.GameStats, now time.Time, d time.Duration) {
	from := now
	if g.StreakProtectionUntil != nil && g.StreakProtectionUntil.After(now) {
		from = *g.StreakProtectionUntil
	}
	until := from.Add(d)
	g.StreakProtectionUntil = &until
}

// LedgerView is the read model of a ledger with its derived fields.
type LedgerView struct {
	models.UserLedger
	Progress        float64        `json:"progress"`
	NextLevelXP     int64          `json:"next_level_xp"`
	XPToNextLevel   int64          `json:"xp_to_next_level"`
	ActiveBoost     float64        `json:"active_boost"`
	SpinAvailableAt *time.Time     `json:"spin_available_at,omitempty"`
	Badges          []models.Badge `json:"badges"`
}

// GetLedger returns the ledger with level progress computed on read.
func (s *LedgerService) GetLedger(ctx context.Context, userID string) (*LedgerView, error) {
	db := s.DB.WithContext(ctx)
	var u models.UserLedger
	if err := db.Where("id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var badges []models.Badge
	err := db.Joins("JOIN user_badges ON user_badges.badge_id = badges.id").
		Where("user_badges.user_id = ?", userID).
		Order("user_badges.awarded_at ASC").
		Find(&badges).Error
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := &LedgerView{
		UserLedger:    u,
		Progress:      ProgressFraction(u.XP, u.Level),
		XPToNextLevel: XPToNextLevel(u.XP),
		ActiveBoost:   u.GameStats.ActiveBoost(now),
		Badges:        badges,
	}
	if u.Level < MaxLevel {
		view.NextLevelXP = XPForLevel(u.Level + 1)
	}
	if u.GameStats.LastSpin != nil {
		next := u.GameStats.LastSpin.Add(s.SpinCooldown)
		if next.After(now) {
			view.SpinAvailableAt = &next
		}
	}
	return view, nil
}

// HistoryPage is one page of ledger entries, newest first.
type HistoryPage struct {
	Entries    []models.LedgerEntry `json:"entries"`
	Page       int                  `json:"page"`
	Size       int                  `json:"size"`
	TotalItems int64                `json:"total_items"`
	TotalPages int                  `json:"total_pages"`
}

// History returns paginated ledger entries for a user.
func (s *LedgerService) History(ctx context.Context, userID string, page, size int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	db := s.DB.WithContext(ctx)
	var total int64
	if err := db.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, err
	}
	out := &HistoryPage{
		Entries:    []models.LedgerEntry{},
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}
	// past the last page: empty, and no offset arithmetic that could overflow
	if page > out.TotalPages {
		return out, nil
	}

	err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&out.Entries).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
