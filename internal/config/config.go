package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	RedisURL  string
	RedisPass string
	RedisDB   int

	// Ad confirmation. When AdProofSecret is set, boost requests must carry a
	// signed ad_token; otherwise the plain ad_watched flag is accepted.
	AdProofSecret    string
	RequireAdToStart bool

	// Mining program parameters.
	SessionDuration  time.Duration
	BoostDailyLimit  int
	WatchDailyLimit  int
	DailyWatchReward float64
	BoostHours       float64
	BoostFactor      float64

	// Seed values for the settings singleton, used only when the store has
	// no mining:settings key yet.
	TotalSupply    float64
	ProgramEnd     time.Time
	MinRatePerUser float64

	// Background jobs (robfig/cron specs).
	AccrueSpec   string
	SnapshotSpec string
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		RedisURL:  getEnv("REDIS_URL", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASSWORD", ""),

		AdProofSecret: getEnv("AD_PROOF_SECRET", ""),

		AccrueSpec:   getEnv("ACCRUE_CRON", "@every 1m"),
		SnapshotSpec: getEnv("SUPPLY_SNAPSHOT_CRON", "@daily"),
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.RequireAdToStart, err = getEnvBool("REQUIRE_AD_TO_START", false); err != nil {
		return nil, err
	}

	sessionHours, err := getEnvFloat("SESSION_DURATION_HOURS", 8)
	if err != nil {
		return nil, err
	}
	if sessionHours <= 0 {
		return nil, fmt.Errorf("SESSION_DURATION_HOURS must be positive, got %v", sessionHours)
	}
	cfg.SessionDuration = time.Duration(sessionHours * float64(time.Hour))

	if cfg.BoostDailyLimit, err = getEnvInt("BOOST_DAILY_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.WatchDailyLimit, err = getEnvInt("WATCH_DAILY_LIMIT", 3); err != nil {
		return nil, err
	}
	if cfg.BoostDailyLimit < 1 || cfg.WatchDailyLimit < 1 {
		return nil, fmt.Errorf("daily limits must be at least 1")
	}
	if cfg.DailyWatchReward, err = getEnvFloat("DAILY_WATCH_REWARD", 1.0); err != nil {
		return nil, err
	}
	if cfg.BoostHours, err = getEnvFloat("DEFAULT_BOOST_HOURS", 1); err != nil {
		return nil, err
	}
	if cfg.BoostFactor, err = getEnvFloat("DEFAULT_BOOST_MULTIPLIER", 1.1); err != nil {
		return nil, err
	}

	if cfg.TotalSupply, err = getEnvFloat("TOTAL_SUPPLY", 1_000_000); err != nil {
		return nil, err
	}
	if cfg.MinRatePerUser, err = getEnvFloat("MIN_RATE_PER_USER", 0.05); err != nil {
		return nil, err
	}

	endStr := getEnv("PROGRAM_END", "")
	if endStr != "" {
		cfg.ProgramEnd, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PROGRAM_END %q: %v", endStr, err)
		}
	} else {
		// One year program by default.
		cfg.ProgramEnd = time.Now().UTC().AddDate(1, 0, 0)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %v", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %v", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %v", key, v, err)
	}
	return b, nil
}
