package models

type ActionType string

const (
	ActionStartSession   ActionType = "start_session"
	ActionActivateBoost  ActionType = "activate_boost"
	ActionWatchAndEarn   ActionType = "watch_and_earn"
	ActionAccrual        ActionType = "accrual"
	ActionSupplySnapshot ActionType = "supply_snapshot"
)

// MiningAction is one immutable audit record. Records are written once after
// the state mutation commits and are never updated or deleted.
type MiningAction struct {
	ID        string     `json:"id" redis:"id"`
	UserID    string     `json:"user_id" redis:"user_id"`
	Type      ActionType `json:"action_type" redis:"action_type"`
	AdType    string     `json:"ad_type,omitempty" redis:"ad_type"`
	AdWatched bool       `json:"ad_watched" redis:"ad_watched"`
	SessionID string     `json:"session_id,omitempty" redis:"session_id"`

	MultiplierApplied float64 `json:"multiplier_applied,omitempty" redis:"multiplier_applied"`
	NewMultiplier     float64 `json:"new_multiplier,omitempty" redis:"new_multiplier"`
	Reward            float64 `json:"reward" redis:"reward"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
}
