// services/reward_selector.go
package services

import (
	"math/rand/v2"
	"sync"

	"habit-ledger/models"
)

// secondaryChance is the independent inclusion probability of each
// non-primary component of a tier.
const secondaryChance = 0.3

// RandSource is the subset of *rand.Rand the wheel draws from.
type RandSource interface {
	IntN(n int) int
	Float64() float64
}

// lockedRand serializes access to a shared source; *rand.Rand is not
// safe for concurrent use.
type lockedRand struct {
	mu  sync.Mutex
	src RandSource
}

func newLockedRand(src RandSource) *lockedRand {
	if src == nil {
		src = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &lockedRand{src: src}
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

func (r *lockedRand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.Float64()
}

// SelectTier is a weighted roulette over table.Tiers in configured order.
// Returns nil only for an empty or zero-weight table, which a validated
// table never is.
func SelectTier(table *models.RewardTable, rng RandSource) *models.RewardTier {
	total := table.TotalWeight()
	if total <= 0 {
		return nil
	}
	r := rng.IntN(total)
	for i := range table.Tiers {
		tier := &table.Tiers[i]
		if r < tier.Weight {
			return tier
		}
		r -= tier.Weight
	}
	return &table.Tiers[len(table.Tiers)-1]
}

// Materialize resolves a tier into concrete rewards: exactly one primary
// component (uniform among xp/coins present), then every secondary
// component independently with probability 0.3.
func Materialize(tier *models.RewardTier, rng RandSource) []models.ResolvedReward {
	var primaries []int
	for i, c := range tier.Components {
		if c.Kind.IsPrimary() {
			primaries = append(primaries, i)
		}
	}

	chosen := -1
	if len(primaries) > 0 {
		chosen = primaries[rng.IntN(len(primaries))]
	}

	var out []models.ResolvedReward
	for i, c := range tier.Components {
		switch {
		case i == chosen:
		case c.Kind.IsPrimary():
			continue
		case rng.Float64() >= secondaryChance:
			continue
		}
		out = append(out, resolve(c, rng))
	}
	return out
}

func resolve(c models.RewardComponent, rng RandSource) models.ResolvedReward {
	switch c.Kind {
	case models.RewardItem, models.RewardBadge:
		return models.ResolvedReward{Kind: c.Kind, Ref: c.Ref, Amount: 1}
	}
	return models.ResolvedReward{Kind: c.Kind, Amount: drawRange(c.Min, c.Max, rng)}
}

// drawRange is a uniform integer in [lo, hi].
func drawRange(lo, hi int64, rng RandSource) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(rng.IntN(int(hi-lo+1)))
}
