package services

import (
	"fmt"
	"strings"
	"time"
)

// StreakResetPolicy decides the streak value after a broken gap.
type StreakResetPolicy int

const (
	ResetToOne StreakResetPolicy = iota // the breaking completion starts a new streak
	ResetToZero
)

// ParseStreakResetPolicy accepts "one" / "1" / "zero" / "0"; empty means ResetToOne.
func ParseStreakResetPolicy(s string) (StreakResetPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "one", "1":
		return ResetToOne, nil
	case "zero", "0":
		return ResetToZero, nil
	}
	return ResetToOne, fmt.Errorf("unknown streak reset policy %q", s)
}

const (
	streakBonusStep = 5
	streakBonusCap  = 100
)

// StreakState is the streak portion of a ledger.
type StreakState struct {
	Current          int
	Longest          int
	LastCompletionAt *time.Time
	ProtectionUntil  *time.Time
}

// StreakTracker normalizes completions to calendar days in Location.
type StreakTracker struct {
	Location *time.Location
	Policy   StreakResetPolicy
}

// NewStreakTracker defaults to UTC.
func NewStreakTracker(loc *time.Location, policy StreakResetPolicy) StreakTracker {
	if loc == nil {
		loc = time.UTC
	}
	return StreakTracker{Location: loc, Policy: policy}
}

// dayNumber counts calendar days since the epoch in the tracker's zone.
func (t StreakTracker) dayNumber(ts time.Time) int64 {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// SameDay reports whether a and b fall on the same calendar day.
func (t StreakTracker) SameDay(a, b time.Time) bool {
	return t.dayNumber(a) == t.dayNumber(b)
}

// StartOfDay returns midnight of ts's day in the tracker's zone.
func (t StreakTracker) StartOfDay(ts time.Time) time.Time {
	loc := t.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ApplyCompletion folds one completion at ts into state and returns the new
// state and the streak bonus earned by it.
func (t StreakTracker) ApplyCompletion(state StreakState, ts time.Time) (StreakState, int64) {
	next := state
	if state.LastCompletionAt == nil {
		next.Current = 1
		next.LastCompletionAt = &ts
	} else {
		gap := t.dayNumber(ts) - t.dayNumber(*state.LastCompletionAt)
		switch {
		case gap <= 0:
			// same day, or a late-arriving earlier completion: no change
		case gap == 1:
			next.Current++
			next.LastCompletionAt = &ts
		default:
			if state.ProtectionUntil != nil && ts.Before(*state.ProtectionUntil) {
				next.Current++
				next.ProtectionUntil = nil
			} else if t.Policy == ResetToZero {
				next.Current = 0
			} else {
				next.Current = 1
			}
			next.LastCompletionAt = &ts
		}
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	return next, StreakBonus(next.Current)
}

// StreakBonus is min(floor(streak/3)·5, 100), in XP.
func StreakBonus(streak int) int64 {
	if streak <= 0 {
		return 0
	}
	bonus := int64(streak/3) * streakBonusStep
	if bonus > streakBonusCap {
		return streakBonusCap
	}
	return bonus
}
