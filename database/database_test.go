package database

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"habit-ledger/models"

	"gorm.io/gorm"
)

func TestSeed_Idempotent(t *testing.T) {
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := Seed(db); err != nil {
			t.Fatalf("Seed() run %d error: %v", i+1, err)
		}
	}

	var items, badges int64
	db.Model(&models.ShopItem{}).Count(&items)
	db.Model(&models.Badge{}).Count(&badges)
	if items != 3 {
		t.Errorf("shop items = %d, want 3", items)
	}
	if badges != 8 {
		t.Errorf("badges = %d, want 8", badges)
	}

	var freeze models.ShopItem
	if err := db.Where("code = ?", "streak-freeze").First(&freeze).Error; err != nil {
		t.Fatalf("streak-freeze missing: %v", err)
	}
	if freeze.Effect != models.EffectStreakProtection || !freeze.Stackable {
		t.Errorf("streak-freeze = %+v", freeze)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := Open("mysql", "dsn"); err == nil {
		t.Error("Open(mysql) accepted")
	}
}

func TestLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := open("sqlite", ":memory:", newLogger(log.New(&buf, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}

	var inv models.InventoryItem
	err = db.Where("user_id = ? AND item_id = ?", "u1", "missing").First(&inv).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("First() error = %v, want ErrRecordNotFound", err)
	}
	if strings.Contains(buf.String(), "record not found") {
		t.Errorf("logger printed a lookup miss: %s", buf.String())
	}
}
