package services

import (
	"math"
	"testing"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{-5, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
		{2500, 6},
		{100 * 98 * 98, 99},
		{100 * 99 * 99, 100},
		{math.MaxInt32, 100},
	}
	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := int64(1); xp <= 1_000_000; xp += 7 {
		lvl := LevelForXP(xp)
		if lvl < prev {
			t.Fatalf("LevelForXP(%d) = %d < %d", xp, lvl, prev)
		}
		if lvl < 1 || lvl > MaxLevel {
			t.Fatalf("LevelForXP(%d) = %d out of range", xp, lvl)
		}
		prev = lvl
	}
}

func TestXPForLevel_RoundTrip(t *testing.T) {
	for lvl := 1; lvl <= MaxLevel; lvl++ {
		xp := XPForLevel(lvl)
		if got := LevelForXP(xp); got != lvl {
			t.Errorf("LevelForXP(XPForLevel(%d)=%d) = %d", lvl, xp, got)
		}
		if lvl > 1 {
			if got := LevelForXP(xp - 1); got != lvl-1 {
				t.Errorf("LevelForXP(%d) = %d, want %d", xp-1, got, lvl-1)
			}
		}
	}
}

func TestProgressFraction(t *testing.T) {
	tests := []struct {
		name  string
		xp    int64
		level int
		want  float64
	}{
		{"start of level", 100, 2, 0},
		{"a sixth in", 150, 2, 50.0 / 300.0},
		{"just below next", 399, 2, 299.0 / 300.0},
		{"stale level clamps high", 5000, 2, 1},
		{"stale level clamps low", 50, 2, 0},
		{"cap", 1_000_000, MaxLevel, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressFraction(tt.xp, tt.level)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ProgressFraction(%d, %d) = %f, want %f", tt.xp, tt.level, got, tt.want)
			}
		})
	}
}

func TestXPToNextLevel(t *testing.T) {
	if got := XPToNextLevel(0); got != 100 {
		t.Errorf("XPToNextLevel(0) = %d, want 100", got)
	}
	if got := XPToNextLevel(150); got != 250 {
		t.Errorf("XPToNextLevel(150) = %d, want 250", got)
	}
	if got := XPToNextLevel(XPForLevel(MaxLevel)); got != 0 {
		t.Errorf("XPToNextLevel(cap) = %d, want 0", got)
	}
}

func TestApplyBoost(t *testing.T) {
	if got := applyBoost(15, 1); got != 15 {
		t.Errorf("applyBoost(15, 1) = %d, want 15", got)
	}
	if got := applyBoost(15, 1.5); got != 22 {
		t.Errorf("applyBoost(15, 1.5) = %d, want 22", got)
	}
	if got := applyBoost(15, 0); got != 15 {
		t.Errorf("applyBoost(15, 0) = %d, want 15", got)
	}
}
