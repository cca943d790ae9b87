// database/database.go
package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"habit-ledger/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// newLogger logs warnings and slow queries. Misses on First are expected
// lookups here (inventory, game stats), not errors.
func newLogger(w logger.Writer) logger.Interface {
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  true,
	})
}

// Open connects with the configured driver. Driver errors are translated so
// unique violations surface as gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	return open(driver, dsn, newLogger(log.New(os.Stdout, "\r\n", log.LstdFlags)))
}

func open(driver, dsn string, lg logger.Interface) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         lg,
	}

	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if driver == "sqlite" {
		// one writer at a time; transactions queue on the pool
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every ledger table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserLedger{},
		&models.Badge{},
		&models.UserBadge{},
		&models.ShopItem{},
		&models.InventoryItem{},
		&models.Habit{},
		&models.Task{},
		&models.UserGameStat{},
		&models.LedgerEntry{},
		&models.SpinLog{},
		&models.RevokedToken{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Seed inserts the catalogue entries the built-in reward table refers to.
// Existing codes are left untouched.
func Seed(db *gorm.DB) error {
	items := []models.ShopItem{
		{Code: "streak-freeze", Name: "Streak Freeze", Price: 150, Stackable: true,
			Effect: models.EffectStreakProtection, EffectDurationHours: 48, IsActive: true},
		{Code: "double-xp", Name: "Double XP", Price: 300, Stackable: true,
			Effect: models.EffectXPBoost, BoostMultiplier: 2, EffectDurationHours: 24, IsActive: true},
		{Code: "golden-frame", Name: "Golden Frame", Currency: models.CurrencyGems, Price: 20, IsActive: true},
	}
	for i := range items {
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&items[i]).Error; err != nil {
			return fmt.Errorf("seed item %s: %w", items[i].Code, err)
		}
	}

	badges := []models.Badge{
		{Code: "first-step", Name: "First Step", Rarity: "common", CriteriaMetric: models.MetricCompletedHabits, CriteriaThreshold: 1, XPReward: 10, CoinReward: 5, IsActive: true},
		{Code: "week-warrior", Name: "Week Warrior", Rarity: "rare", CriteriaMetric: models.MetricStreak, CriteriaThreshold: 7, XPReward: 100, CoinReward: 50, IsActive: true},
		{Code: "task-master", Name: "Task Master", Rarity: "rare", CriteriaMetric: models.MetricCompletedTasks, CriteriaThreshold: 50, XPReward: 150, CoinReward: 75, IsActive: true},
		{Code: "xp-hoarder", Name: "XP Hoarder", Rarity: "epic", CriteriaMetric: models.MetricTotalXP, CriteriaThreshold: 10000, XPReward: 250, CoinReward: 100, IsActive: true},
		{Code: "regular", Name: "Regular", Rarity: "uncommon", CriteriaMetric: models.MetricDaysActive, CriteriaThreshold: 30, XPReward: 50, CoinReward: 25, IsActive: true},
		{Code: "gamer", Name: "Gamer", Rarity: "uncommon", CriteriaMetric: models.MetricGamesPlayed, CriteriaThreshold: 25, XPReward: 50, CoinReward: 25, IsActive: true},
		{Code: "wheel-legend", Name: "Wheel Legend", Rarity: "legendary", CriteriaMetric: models.MetricTotalXP, CriteriaThreshold: 1e12, IsActive: true},
		{Code: "patron", Name: "Patron", Rarity: "epic", CriteriaMetric: models.MetricTotalXP, CriteriaThreshold: 1e12, Purchasable: true, Price: 1000, IsActive: true},
	}
	for i := range badges {
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&badges[i]).Error; err != nil {
			return fmt.Errorf("seed badge %s: %w", badges[i].Code, err)
		}
	}
	return nil
}
