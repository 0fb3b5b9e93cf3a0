package models

// Profile is the per-user mining state: wallet balance, boost multiplier and
// the day-bucketed quota counters. One profile per user, created on first
// touch. The counters are only ever mutated inside Redis Lua scripts so that
// reset-check-increment is a single atomic unit.
type Profile struct {
	UserID        string  `json:"user_id" redis:"user_id"`
	WalletBalance float64 `json:"wallet_balance" redis:"wallet_balance"`

	// Boost state. Multiplier applies while now < BoostExpiresAt (unix
	// seconds, 0 = never boosted); once the window has fully expired the next
	// boost restarts the multiplier from 1 instead of compounding forever.
	Multiplier     float64 `json:"multiplier" redis:"multiplier"`
	BoostExpiresAt int64   `json:"boost_expires_at" redis:"boost_expires_at"`

	// Daily quota counters with their reset markers ("YYYY-MM-DD", UTC).
	// Boost and watch quotas reset independently.
	BoostsUsedToday int64  `json:"boosts_used_today" redis:"boosts_used_today"`
	LastBoostReset  string `json:"last_boost_reset" redis:"last_boost_reset"`
	DailyWatchedAds int64  `json:"daily_watched_ads" redis:"daily_watched_ads"`
	LastWatchReset  string `json:"last_watch_reset" redis:"last_watch_reset"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

// Boosted reports whether the profile multiplier is in effect at the given
// unix time.
func (p *Profile) Boosted(nowUnix int64) bool {
	return p.BoostExpiresAt > nowUnix
}

// EffectiveMultiplier is the multiplier actually applied to the mining rate:
// the stored multiplier while the boost window is open, 1 otherwise.
func (p *Profile) EffectiveMultiplier(nowUnix int64) float64 {
	if p.Boosted(nowUnix) && p.Multiplier > 1 {
		return p.Multiplier
	}
	return 1
}

func NewProfile(userID string, nowUnix int64) *Profile {
	return &Profile{
		UserID:     userID,
		Multiplier: 1,
		CreatedAt:  nowUnix,
		UpdatedAt:  nowUnix,
	}
}
