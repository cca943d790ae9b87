package config

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"habit-ledger/models"
	"habit-ledger/utils"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed rewards.toml
var defaultRewards []byte

// DefaultRewardTable returns the built-in wheel.
func DefaultRewardTable() (*models.RewardTable, error) {
	return ParseRewardTable(defaultRewards)
}

// LoadRewardTable picks the table source in order: R2 object, local file,
// built-in default.
func LoadRewardTable(ctx context.Context, cfg Config) (*models.RewardTable, error) {
	switch {
	case cfg.RewardTableBucket != "" && cfg.RewardTableKey != "":
		client, err := utils.NewR2Client(ctx, utils.R2Credentials{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
		})
		if err != nil {
			return nil, err
		}
		raw, err := utils.FetchObject(ctx, client, cfg.RewardTableBucket, cfg.RewardTableKey)
		if err != nil {
			return nil, err
		}
		utils.LogInfo("[Config] reward table loaded from r2://%s/%s", cfg.RewardTableBucket, cfg.RewardTableKey)
		return ParseRewardTable(raw)
	case cfg.RewardTablePath != "":
		raw, err := os.ReadFile(cfg.RewardTablePath)
		if err != nil {
			return nil, fmt.Errorf("read reward table: %w", err)
		}
		utils.LogInfo("[Config] reward table loaded from %s", cfg.RewardTablePath)
		return ParseRewardTable(raw)
	}
	return DefaultRewardTable()
}

// ParseRewardTable decodes and validates a TOML tier table.
func ParseRewardTable(raw []byte) (*models.RewardTable, error) {
	var table models.RewardTable
	md, err := toml.NewDecoder(bytes.NewReader(raw)).Decode(&table)
	if err != nil {
		return nil, fmt.Errorf("parse reward table: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse reward table: unknown key %q", undecoded[0].String())
	}
	if err := ValidateRewardTable(&table); err != nil {
		return nil, err
	}
	title := cases.Title(language.English)
	for i := range table.Tiers {
		table.Tiers[i].Label = title.String(table.Tiers[i].Name)
	}
	return &table, nil
}

// ValidateRewardTable checks the table once at startup so spins never have
// to.
func ValidateRewardTable(t *models.RewardTable) error {
	if len(t.Tiers) == 0 {
		return errors.New("reward table: no tiers")
	}
	seen := map[string]bool{}
	var errs []error
	for i, tier := range t.Tiers {
		where := fmt.Sprintf("tier %d (%q)", i, tier.Name)
		if tier.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", where))
		}
		if seen[tier.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name", where))
		}
		seen[tier.Name] = true
		if tier.Weight <= 0 {
			errs = append(errs, fmt.Errorf("%s: weight must be positive", where))
		}
		primaries := 0
		for j, c := range tier.Components {
			cw := fmt.Sprintf("%s component %d", where, j)
			switch c.Kind {
			case models.RewardXP, models.RewardCoins, models.RewardGems:
				if c.Min < 0 || c.Max < c.Min {
					errs = append(errs, fmt.Errorf("%s: range must satisfy 0 <= min <= max", cw))
				}
				if c.Kind.IsPrimary() {
					primaries++
				}
			case models.RewardItem, models.RewardBadge:
				if c.Ref == "" {
					errs = append(errs, fmt.Errorf("%s: %s needs a ref", cw, c.Kind))
				}
			default:
				errs = append(errs, fmt.Errorf("%s: unknown kind %q", cw, c.Kind))
			}
		}
		if primaries == 0 {
			errs = append(errs, fmt.Errorf("%s: needs an xp or coins component", where))
		}
	}
	return errors.Join(errs...)
}
