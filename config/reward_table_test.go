package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"habit-ledger/models"
)

func TestDefaultRewardTable(t *testing.T) {
	table, err := DefaultRewardTable()
	if err != nil {
		t.Fatalf("DefaultRewardTable() error: %v", err)
	}
	if got := len(table.Tiers); got != 5 {
		t.Fatalf("tiers = %d, want 5", got)
	}
	if got := table.TotalWeight(); got != 100 {
		t.Errorf("TotalWeight() = %d, want 100", got)
	}
	names := []string{"common", "uncommon", "rare", "epic", "legendary"}
	for i, name := range names {
		if table.Tiers[i].Name != name {
			t.Errorf("tier %d = %q, want %q", i, table.Tiers[i].Name, name)
		}
	}
	if table.Tiers[4].Label != "Legendary" {
		t.Errorf("label = %q, want Legendary", table.Tiers[4].Label)
	}
	last := table.Tiers[4].Components
	if c := last[len(last)-1]; c.Kind != models.RewardBadge || c.Ref != "wheel-legend" {
		t.Errorf("legendary extra = %+v", c)
	}
}

func TestParseRewardTable_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"empty", ``, "no tiers"},
		{"unknown key", `
[[tiers]]
name = "a"
weight = 1
odds = 3
components = [{ kind = "xp", min = 1, max = 2 }]
`, "unknown key"},
		{"zero weight", `
[[tiers]]
name = "a"
weight = 0
components = [{ kind = "xp", min = 1, max = 2 }]
`, "weight must be positive"},
		{"inverted range", `
[[tiers]]
name = "a"
weight = 1
components = [{ kind = "coins", min = 9, max = 2 }]
`, "0 <= min <= max"},
		{"no primary", `
[[tiers]]
name = "a"
weight = 1
components = [{ kind = "gems", min = 1, max = 2 }]
`, "needs an xp or coins component"},
		{"item without ref", `
[[tiers]]
name = "a"
weight = 1
components = [{ kind = "xp", min = 1, max = 2 }, { kind = "item" }]
`, "needs a ref"},
		{"unknown kind", `
[[tiers]]
name = "a"
weight = 1
components = [{ kind = "xp", min = 1, max = 2 }, { kind = "hugs", min = 1, max = 1 }]
`, "unknown kind"},
		{"duplicate name", `
[[tiers]]
name = "a"
weight = 1
components = [{ kind = "xp", min = 1, max = 2 }]

[[tiers]]
name = "a"
weight = 1
components = [{ kind = "xp", min = 1, max = 2 }]
`, "duplicate name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRewardTable([]byte(tt.raw))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseRewardTable() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRewardTable_ReportsEveryProblem(t *testing.T) {
	table := &models.RewardTable{Tiers: []models.RewardTier{
		{Name: "", Weight: -1, Components: []models.RewardComponent{{Kind: models.RewardBadge}}},
	}}
	err := ValidateRewardTable(table)
	if err == nil {
		t.Fatal("ValidateRewardTable() = nil, want error")
	}
	for _, want := range []string{"name is required", "weight must be positive", "needs a ref", "needs an xp or coins"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestLoadRewardTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wheel.toml")
	raw := `
[[tiers]]
name = "only"
weight = 3
components = [{ kind = "coins", min = 1, max = 1 }]
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := LoadRewardTable(context.Background(), Config{RewardTablePath: path})
	if err != nil {
		t.Fatalf("LoadRewardTable() error: %v", err)
	}
	if len(table.Tiers) != 1 || table.Tiers[0].Label != "Only" {
		t.Errorf("table = %+v", table.Tiers)
	}

	table, err = LoadRewardTable(context.Background(), Config{})
	if err != nil {
		t.Fatalf("default fallback error: %v", err)
	}
	if len(table.Tiers) != 5 {
		t.Errorf("default fallback = %d tiers, want 5", len(table.Tiers))
	}

	if _, err := LoadRewardTable(context.Background(), Config{RewardTablePath: path + ".missing"}); err == nil {
		t.Error("missing file accepted")
	}
}
