package services

import "time"

const (
	KeyProfile        = "mining:profile:%s"
	KeySession        = "mining:session:%s"
	KeySessionPrefix  = "mining:session:"
	KeyUserActive     = "mining:user:%s:active"
	KeyActiveSessions = "mining:sessions:active"
	KeySettings       = "mining:settings"
	KeyAction         = "mining:action:%s"
	KeyUserActions    = "mining:user:%s:actions"
	KeyRateLimit      = "ratelimit:%s:%s"

	// Audit records are retained indefinitely; only the per-user index is
	// trimmed, to the most recent MaxIndexedActions entries.
	MaxIndexedActions = 100

	DefaultRateLimitStart = 10 // session starts per user per minute
	DefaultRateLimitBoost = 10
	DefaultRateLimitWatch = 10
	RateLimitWindow       = time.Minute
)
