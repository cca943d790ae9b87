// handlers/errors.go
package handlers

import (
	"errors"

	"habit-ledger/services"
	"habit-ledger/utils"

	"github.com/gofiber/fiber/v2"
)

// respondError maps ledger errors to HTTP responses.
func respondError(c *fiber.Ctx, err error, msg string) error {
	var cooldown *services.CooldownError
	switch {
	case errors.As(err, &cooldown):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":             msg,
			"cause":             err.Error(),
			"retry_after_hours": cooldown.HoursRemaining(),
		})
	case errors.Is(err, services.ErrTransactionConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     msg,
			"cause":     err.Error(),
			"retryable": true,
		})
	}

	status := statusOf(err)
	if status == fiber.StatusInternalServerError {
		utils.LogError("%s: %v", msg, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrHabitNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrBadgeNotFound),
		errors.Is(err, services.ErrNotRanked):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInsufficientFunds):
		return fiber.StatusPaymentRequired
	case errors.Is(err, services.ErrAlreadyOwned),
		errors.Is(err, services.ErrAlreadyCompleted):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrCooldownActive):
		return fiber.StatusTooManyRequests
	case errors.Is(err, services.ErrBadgeNotPurchasable),
		errors.Is(err, services.ErrBadgeUnavailable):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrUnknownDimension),
		errors.Is(err, services.ErrUnknownTimeframe),
		errors.Is(err, services.ErrScopeRequired):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
