package services

import "errors"

// Sentinel errors the handlers map onto HTTP statuses. Quota errors carry the
// exact reason strings the clients display.
var (
	ErrBoostLimitReached = errors.New("boosts daily limit reached")
	ErrWatchLimitReached = errors.New("daily watch limit reached")
	ErrAdRequired        = errors.New("ad confirmation required")
	ErrSettingsMissing   = errors.New("mining settings not configured")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrSessionNotFound   = errors.New("session not found")
)
