package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// Not found: terminal for the request.
	ErrUserNotFound  = errors.New("user ledger not found")
	ErrHabitNotFound = errors.New("habit not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrItemNotFound  = errors.New("shop item not found")
	ErrBadgeNotFound = errors.New("badge not found")

	// Expected user-facing outcomes, never retried.
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrAlreadyOwned        = errors.New("already owned")
	ErrAlreadyCompleted    = errors.New("already completed")
	ErrCooldownActive      = errors.New("spin cooldown active")
	ErrBadgeNotPurchasable = errors.New("badge is not purchasable")
	ErrBadgeUnavailable    = errors.New("badge is not available")
	ErrInvalidAmount       = errors.New("amount must be positive")

	// Concurrent modification; the caller may retry the whole operation.
	ErrTransactionConflict = errors.New("transaction conflict")

	// Returned by the badge engine only for diagnostics; never blocks an award pass.
	ErrInvalidMetric = errors.New("unrecognized badge metric")

	ErrNotRanked        = errors.New("user not ranked in this leaderboard")
	ErrUnknownDimension = errors.New("unknown leaderboard dimension")
	ErrUnknownTimeframe = errors.New("unknown leaderboard timeframe")
	ErrScopeRequired    = errors.New("leaderboard dimension requires a game scope")
)

// CooldownError carries the wait left before the next spin.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: %.1fh remaining", ErrCooldownActive, e.HoursRemaining())
}

func (e *CooldownError) Is(target error) bool { return target == ErrCooldownActive }

// HoursRemaining is the wait rounded to one decimal hour.
func (e *CooldownError) HoursRemaining() float64 {
	return math.Round(e.Remaining.Hours()*10) / 10
}

// classifyStoreError maps store-level concurrency failures to
// ErrTransactionConflict and leaves everything else untouched.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505": // serialization_failure, deadlock_detected, unique_violation
			return fmt.Errorf("%w: %s", ErrTransactionConflict, pgErr.Message)
		}
	}
	return err
}
