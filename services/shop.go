package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habit-ledger/models"

	"gorm.io/gorm"
)

// findItem resolves an active shop item by id or code.
func findItem(tx *gorm.DB, ref string) (*models.ShopItem, error) {
	var item models.ShopItem
	err := tx.Where("(id = ? OR code = ?) AND is_active = ?", ref, ref, true).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, ref)
		}
		return nil, err
	}
	return &item, nil
}

func findInventory(tx *gorm.DB, userID, itemID string) (*models.InventoryItem, error) {
	var inv models.InventoryItem
	err := tx.Where("user_id = ? AND item_id = ?", userID, itemID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	return &inv, nil
}

// addInventory gives the user one unit of item. A non-stackable item that is
// already owned is left alone and reported as not added.
func addInventory(tx *gorm.DB, userID string, item *models.ShopItem) (bool, error) {
	inv, err := findInventory(tx, userID, item.ID)
	if err != nil {
		return false, err
	}
	if inv == nil {
		inv = &models.InventoryItem{UserID: userID, ItemID: item.ID, Quantity: 1}
		if err := tx.Create(inv).Error; err != nil {
			return false, fmt.Errorf("add inventory: %w", err)
		}
		return true, nil
	}
	if !item.Stackable {
		return false, nil
	}
	if err := tx.Model(inv).Update("quantity", gorm.Expr("quantity + ?", 1)).Error; err != nil {
		return false, fmt.Errorf("add inventory: %w", err)
	}
	return true, nil
}

// applyEffect activates a consumable's effect on the buyer. A new XP boost
// replaces any running one.
func applyEffect(u *models.UserLedger, item *models.ShopItem, now time.Time) {
	d := item.EffectDuration()
	if d <= 0 {
		return
	}
	switch item.Effect {
	case models.EffectXPBoost:
		if item.BoostMultiplier <= 1 {
			return
		}
		expires := now.Add(d)
		u.GameStats.BoostMultiplier = item.BoostMultiplier
		u.GameStats.BoostExpiresAt = &expires
	case models.EffectStreakProtection:
		extendProtection(&u.GameStats, now, d)
	}
}

// PurchaseItem debits the item's price in its currency and adds it to the
// inventory.
func (s *LedgerService) PurchaseItem(ctx context.Context, userID, itemID string) (*LedgerResult, error) {
	return s.mutate(ctx, models.EventItemPurchase, userID, itemID, func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		item, err := findItem(tx, itemID)
		if err != nil {
			return err
		}
		if !item.Stackable {
			inv, err := findInventory(tx, userID, item.ID)
			if err != nil {
				return err
			}
			if inv != nil {
				return ErrAlreadyOwned
			}
		}

		switch item.Currency {
		case models.CurrencyGems:
			if u.Gems < item.Price {
				return ErrInsufficientFunds
			}
			u.Gems -= item.Price
		default:
			if u.Coins < item.Price {
				return ErrInsufficientFunds
			}
			u.Coins -= item.Price
		}

		if _, err := addInventory(tx, userID, item); err != nil {
			return err
		}
		u.GameStats.ShopPurchases++
		applyEffect(u, item, now)
		res.note = item.Name
		return nil
	})
}

// PurchaseBadge buys a purchasable badge with coins. Bought badges carry no
// xp/coin reward.
func (s *LedgerService) PurchaseBadge(ctx context.Context, userID, badgeID string) (*LedgerResult, error) {
	return s.mutate(ctx, models.EventBadgePurchase, userID, badgeID, func(tx *gorm.DB, u *models.UserLedger, res *LedgerResult, now time.Time) error {
		var b models.Badge
		if err := tx.Where("id = ?", badgeID).First(&b).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBadgeNotFound
			}
			return fmt.Errorf("load badge: %w", err)
		}
		if !b.Purchasable || b.Price <= 0 {
			return ErrBadgeNotPurchasable
		}
		if !b.IsAvailable(now) {
			return ErrBadgeUnavailable
		}
		held, err := heldBadges(tx, userID)
		if err != nil {
			return err
		}
		if held.Has(b.ID) {
			return ErrAlreadyOwned
		}
		if u.Coins < b.Price {
			return ErrInsufficientFunds
		}
		u.Coins -= b.Price

		ub := models.UserBadge{UserID: userID, BadgeID: b.ID, Source: models.BadgeSourcePurchased}
		if err := tx.Create(&ub).Error; err != nil {
			return fmt.Errorf("append badge: %w", err)
		}
		res.BadgesEarned = append(res.BadgesEarned, b)
		res.note = b.Name
		return nil
	})
}
