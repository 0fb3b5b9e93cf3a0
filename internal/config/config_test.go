package config_test

import (
	"testing"
	"time"

	"mining-rewards-backend/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionDuration != 8*time.Hour {
		t.Errorf("Expected 8h session duration, got %v", cfg.SessionDuration)
	}
	if cfg.BoostDailyLimit != 3 || cfg.WatchDailyLimit != 3 {
		t.Errorf("Expected daily limits of 3, got %d/%d", cfg.BoostDailyLimit, cfg.WatchDailyLimit)
	}
	if cfg.DailyWatchReward != 1.0 {
		t.Errorf("Expected daily watch reward 1.0, got %v", cfg.DailyWatchReward)
	}
	if cfg.BoostFactor != 1.1 {
		t.Errorf("Expected boost factor 1.1, got %v", cfg.BoostFactor)
	}
	if cfg.MinRatePerUser != 0.05 {
		t.Errorf("Expected min rate 0.05, got %v", cfg.MinRatePerUser)
	}
	if !cfg.ProgramEnd.After(time.Now()) {
		t.Error("Default program end should be in the future")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_DURATION_HOURS", "4")
	t.Setenv("TOTAL_SUPPLY", "5000")
	t.Setenv("PROGRAM_END", "2030-01-01T00:00:00Z")
	t.Setenv("REQUIRE_AD_TO_START", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SessionDuration != 4*time.Hour {
		t.Errorf("Expected 4h session duration, got %v", cfg.SessionDuration)
	}
	if cfg.TotalSupply != 5000 {
		t.Errorf("Expected total supply 5000, got %v", cfg.TotalSupply)
	}
	if cfg.ProgramEnd.Year() != 2030 {
		t.Errorf("Expected program end in 2030, got %v", cfg.ProgramEnd)
	}
	if !cfg.RequireAdToStart {
		t.Error("Expected REQUIRE_AD_TO_START to be honored")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SESSION_DURATION_HOURS", "-1")
	if _, err := config.Load(); err == nil {
		t.Error("Negative session duration should be rejected")
	}

	t.Setenv("SESSION_DURATION_HOURS", "8")
	t.Setenv("PROGRAM_END", "not-a-date")
	if _, err := config.Load(); err == nil {
		t.Error("Invalid PROGRAM_END should be rejected")
	}

	t.Setenv("PROGRAM_END", "")
	t.Setenv("BOOST_DAILY_LIMIT", "0")
	if _, err := config.Load(); err == nil {
		t.Error("Zero daily limit should be rejected")
	}
}
