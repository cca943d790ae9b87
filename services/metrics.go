package services

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger mutations by operation and outcome.",
	}, []string{"op", "outcome"})

	badgesAwarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_badges_awarded_total",
		Help: "Badges granted by qualification, purchase or spin.",
	})

	levelUps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_level_ups_total",
		Help: "Committed mutations that raised a user's level.",
	})

	spinTiers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_spin_tiers_total",
		Help: "Committed spins by selected tier.",
	}, []string{"tier"})
)

// outcomeOf buckets an operation error for ledger_operations_total.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTransactionConflict):
		return "conflict"
	case isExpected(err):
		return "rejected"
	}
	return "error"
}

// isExpected reports user-facing outcomes that are not faults.
func isExpected(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrHabitNotFound, ErrTaskNotFound, ErrItemNotFound, ErrBadgeNotFound,
		ErrInsufficientFunds, ErrAlreadyOwned, ErrAlreadyCompleted, ErrCooldownActive,
		ErrBadgeNotPurchasable, ErrBadgeUnavailable, ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
