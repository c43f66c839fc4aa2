// Package quota meters per-user consumption of generation calls.
package quota

import (
	"fmt"

	"github.com/kindredapp/kindred/internal/models"
	"gorm.io/gorm"
)

// Check reports whether the user may make another generation call. Read-only.
func Check(gdb *gorm.DB, userID uint) (bool, error) {
	var user models.User
	if err := gdb.First(&user, userID).Error; err != nil {
		return false, fmt.Errorf("quota: check user %d: %w", userID, err)
	}
	return !user.QuotaExhausted(), nil
}

// Increment adds amount to the user's usage counter. The increment happens
// in SQL so the reactive chat path and the dispatch loop can both hit the
// same user without losing updates.
func Increment(gdb *gorm.DB, userID uint, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("quota: increment amount must be positive, got %d", amount)
	}
	result := gdb.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("api_usage", gorm.Expr("api_usage + ?", amount))
	if result.Error != nil {
		return fmt.Errorf("quota: increment user %d: %w", userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("quota: user not found: %d", userID)
	}
	return nil
}

// ResetAll zeroes every user's usage counter. Invoked by the daily reset
// trigger, independent of the dispatch tick.
func ResetAll(gdb *gorm.DB) (int64, error) {
	result := gdb.Model(&models.User{}).Where("api_usage > 0").
		UpdateColumn("api_usage", 0)
	if result.Error != nil {
		return 0, fmt.Errorf("quota: reset all: %w", result.Error)
	}
	return result.RowsAffected, nil
}
