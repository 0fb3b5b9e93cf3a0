package services

// Broadcaster pushes live mining state to connected clients. The engine calls
// it after successful mutations and accrual ticks; a nil-safe no-op is used
// when no websocket hub is attached.
type Broadcaster interface {
	BroadcastStatus(userID string, balance, effectiveRate float64)
	BroadcastSessionEnded(userID, sessionID string)
}
