package services

import "math"

// Level curve: level L starts at 100·(L-1)² XP.
const (
	BaseXPPerLevel = 100
	MaxLevel       = 100
)

// XPForLevel returns the XP at which level starts.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return BaseXPPerLevel * n * n
}

// LevelForXP maps XP to a level in [1, MaxLevel].
func LevelForXP(xp int64) int {
	if xp <= 0 {
		return 1
	}
	q := xp / BaseXPPerLevel
	root := int64(math.Sqrt(float64(q)))
	// correct float rounding at perfect squares
	for root*root > q {
		root--
	}
	for (root+1)*(root+1) <= q {
		root++
	}
	level := int(root) + 1
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ProgressFraction is how far xp has moved from level towards level+1, in [0,1].
func ProgressFraction(xp int64, level int) float64 {
	if level >= MaxLevel {
		return 1
	}
	if level < 1 {
		level = 1
	}
	floor := XPForLevel(level)
	span := XPForLevel(level+1) - floor
	f := float64(xp-floor) / float64(span)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// XPToNextLevel is 0 at the cap.
func XPToNextLevel(xp int64) int64 {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return XPForLevel(level+1) - xp
}

// applyBoost scales an XP gain by the active multiplier, rounding down.
func applyBoost(xp int64, multiplier float64) int64 {
	if multiplier <= 1 {
		return xp
	}
	return int64(math.Floor(float64(xp) * multiplier))
}
