package services

import (
	"testing"
	"time"

	"habit-ledger/database"
	"habit-ledger/models"

	"gorm.io/gorm"
)

// newTestDB returns a migrated in-memory store. One connection, so
// concurrent transactions queue instead of failing with SQLITE_BUSY.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time           { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

var day1 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// scriptedRand replays fixed draws; running out fails the test.
type scriptedRand struct {
	t      *testing.T
	ints   []int
	floats []float64
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		r.t.Fatalf("scriptedRand: unexpected IntN(%d)", n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v >= n {
		r.t.Fatalf("scriptedRand: IntN(%d) scripted %d", n, v)
	}
	return v
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		r.t.Fatalf("scriptedRand: unexpected Float64()")
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func newTestLedger(t *testing.T, db *gorm.DB, clock *testClock, table *models.RewardTable, rng RandSource) *LedgerService {
	t.Helper()
	if table == nil {
		table = &models.RewardTable{Tiers: []models.RewardTier{{
			Name: "common", Label: "Common", Weight: 1,
			Components: []models.RewardComponent{{Kind: models.RewardCoins, Min: 10, Max: 10}},
		}}}
	}
	return NewLedgerService(db, LedgerConfig{
		Rewards: table,
		Streaks: NewStreakTracker(time.UTC, ResetToOne),
		Rand:    rng,
		Now:     clock.Now,
	})
}

func seedUser(t *testing.T, db *gorm.DB, u models.UserLedger) models.UserLedger {
	t.Helper()
	if u.Level == 0 {
		u.Level = LevelForXP(u.XP)
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", u.ID, err)
	}
	return u
}

func loadUser(t *testing.T, db *gorm.DB, id string) models.UserLedger {
	t.Helper()
	var u models.UserLedger
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func seedHabit(t *testing.T, db *gorm.DB, userID string, xp, coins int64) models.Habit {
	t.Helper()
	h := models.Habit{UserID: userID, Title: "Drink water", XPReward: xp, CoinReward: coins}
	if err := db.Create(&h).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}
	return h
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
