package models_test

import (
	"testing"
	"time"

	"mining-rewards-backend/internal/models"
)

func TestModels(t *testing.T) {
	profile := models.NewProfile("user-1", time.Now().Unix())

	if profile.Multiplier != 1 {
		t.Errorf("New profile multiplier should be 1, got %v", profile.Multiplier)
	}
	if profile.WalletBalance != 0 {
		t.Errorf("New profile balance should be 0, got %v", profile.WalletBalance)
	}

	now := time.Now().Unix()
	profile.Multiplier = 1.21
	profile.BoostExpiresAt = now + 3600

	if got := profile.EffectiveMultiplier(now); got != 1.21 {
		t.Errorf("Expected effective multiplier 1.21 while boosted, got %v", got)
	}
	if got := profile.EffectiveMultiplier(now + 7200); got != 1 {
		t.Errorf("Expected effective multiplier 1 after expiry, got %v", got)
	}

	session := &models.MiningSession{
		ID:        models.GenerateSessionID(),
		UserID:    "user-1",
		StartedAt: now,
		EndsAt:    now + 8*3600,
		Active:    true,
	}
	if session.ID == "" {
		t.Error("Session ID should not be empty")
	}
	if session.Expired(now) {
		t.Error("Fresh session should not be expired")
	}
	if !session.Expired(session.EndsAt) {
		t.Error("Session should be expired at ends_at")
	}
}

func TestRemainingSupply(t *testing.T) {
	settings := &models.MiningSettings{TotalSupply: 1000, SupplyDistributed: 400}
	if got := settings.RemainingSupply(); got != 600 {
		t.Errorf("Expected remaining 600, got %v", got)
	}

	settings.SupplyDistributed = 1500
	if got := settings.RemainingSupply(); got != 0 {
		t.Errorf("Remaining supply should clamp at 0, got %v", got)
	}
}

func TestRequestValidation(t *testing.T) {
	start := &models.StartSessionRequest{UserID: "user-1"}
	if err := start.Validate(); err != nil {
		t.Errorf("Valid start request failed validation: %v", err)
	}
	if err := (&models.StartSessionRequest{}).Validate(); err == nil {
		t.Error("Missing user_id should fail validation")
	}

	boost := &models.ActivateBoostRequest{UserID: "user-1", BoostHours: 1, Multiplier: 1.1}
	if err := boost.Validate(); err != nil {
		t.Errorf("Valid boost request failed validation: %v", err)
	}
	if err := (&models.ActivateBoostRequest{UserID: "u", Multiplier: 0.5}).Validate(); err == nil {
		t.Error("Multiplier below 1 should fail validation")
	}
	if err := (&models.ActivateBoostRequest{UserID: "u", BoostHours: -1}).Validate(); err == nil {
		t.Error("Negative boost_hours should fail validation")
	}
	if err := (&models.ActivateBoostRequest{UserID: "u", BoostHours: 1e9}).Validate(); err == nil {
		t.Error("Oversized boost_hours should fail validation")
	}
}

func TestUTCDate(t *testing.T) {
	ts := time.Date(2025, 3, 1, 23, 30, 0, 0, time.FixedZone("UTC+2", 2*3600))
	if got := models.UTCDate(ts); got != "2025-03-01" {
		t.Errorf("Expected 2025-03-01 (UTC calendar date), got %s", got)
	}
}
