package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateSessionID() string {
	return fmt.Sprintf("session_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateActionID() string {
	return fmt.Sprintf("action_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

// UTCDate formats t as the UTC calendar date used by the daily quota reset
// markers.
func UTCDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (r *StartSessionRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id required")
	}
	return nil
}

func (r *ActivateBoostRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id required")
	}
	if r.BoostHours < 0 {
		return fmt.Errorf("boost_hours must not be negative")
	}
	if r.BoostHours > 24 {
		return fmt.Errorf("boost_hours must be at most 24")
	}
	if r.Multiplier != 0 && r.Multiplier < 1 {
		return fmt.Errorf("multiplier must be at least 1")
	}
	return nil
}

func (r *WatchAndEarnRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id required")
	}
	return nil
}
