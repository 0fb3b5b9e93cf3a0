package models

type StartSessionRequest struct {
	UserID    string `json:"user_id"`
	AdWatched bool   `json:"ad_watched"`
}

type ActivateBoostRequest struct {
	UserID     string  `json:"user_id"`
	BoostHours float64 `json:"boost_hours"`
	Multiplier float64 `json:"multiplier"`
	AdWatched  bool    `json:"ad_watched"`
	AdType     string  `json:"ad_type"`
	AdToken    string  `json:"ad_token"`
}

type WatchAndEarnRequest struct {
	UserID string `json:"user_id"`
	AdType string `json:"ad_type"`
}

type StartSessionResponse struct {
	Session         *MiningSession `json:"session"`
	AlreadyActive   bool           `json:"already_active,omitempty"`
	BaseRatePerUser float64        `json:"base_rate_per_user,omitempty"`
}

type StatusResponse struct {
	Session       *MiningSession `json:"session"`
	Profile       *Profile       `json:"profile"`
	EffectiveRate float64        `json:"effective_rate"`
}

type BoostResult struct {
	BoostExpiresAt  int64   `json:"boost_expires_at"`
	Multiplier      float64 `json:"multiplier"`
	BoostsUsedToday int64   `json:"boosts_used_today"`
}

type WatchResult struct {
	DailyWatchedAds int64   `json:"daily_watched_ads"`
	Reward          float64 `json:"reward"`
}
