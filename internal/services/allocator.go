package services

import (
	"math"
	"time"

	"mining-rewards-backend/internal/models"
)

// ComputeBaseRate computes the hourly accrual rate a new session is frozen
// at: the remaining global supply spread over the remaining program hours,
// divided among the currently active sessions, floored at the per-user
// minimum. Pure function of its inputs.
//
// remainingHours floors at 1 so a program past its end date degrades to a
// one-hour budget instead of dividing by zero or going negative.
func ComputeBaseRate(settings *models.MiningSettings, now time.Time, activeUsers int64) (float64, error) {
	if settings == nil {
		return 0, ErrSettingsMissing
	}

	endAt := time.Unix(settings.EndAt, 0)
	remainingHours := math.Ceil(endAt.Sub(now).Hours())
	if remainingHours < 1 {
		remainingHours = 1
	}

	globalHourlyBudget := settings.RemainingSupply() / remainingHours

	if activeUsers < 1 {
		activeUsers = 1
	}
	candidate := globalHourlyBudget / float64(activeUsers)

	return math.Max(settings.MinRatePerUser, candidate), nil
}
