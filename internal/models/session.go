package models

// MiningSession is one time-boxed mining run. BaseRate and Multiplier are
// frozen at creation; the profile-level boost multiplier is applied on top of
// BaseRate during accrual. At most one session per user has Active = true,
// enforced atomically by the session-create script.
type MiningSession struct {
	ID     string `json:"id" redis:"id"`
	UserID string `json:"user_id" redis:"user_id"`

	StartedAt int64 `json:"started_at" redis:"started_at"`
	EndsAt    int64 `json:"ends_at" redis:"ends_at"`

	// LastAccruedAt is the high-water mark of the earnings accrual job:
	// earnings up to this instant have been credited to the wallet and added
	// to supply_distributed.
	LastAccruedAt int64 `json:"last_accrued_at" redis:"last_accrued_at"`

	BaseRate   float64 `json:"base_rate" redis:"base_rate"`
	Multiplier float64 `json:"multiplier" redis:"multiplier"`
	Active     bool    `json:"active" redis:"active"`
}

// Expired reports whether the session has conceptually ended, regardless of
// whether the Active flag has been flipped yet.
func (s *MiningSession) Expired(nowUnix int64) bool {
	return nowUnix >= s.EndsAt
}
