package services

import (
	"fmt"
	"log"
	"time"

	"mining-rewards-backend/internal/config"
	"mining-rewards-backend/internal/models"
)

// MiningEngine implements the allocation and quota rules: session lifecycle,
// rate allocation from the shared supply, the daily boost and watch quotas,
// and the periodic earnings accrual that moves supply into wallets.
type MiningEngine struct {
	redisService *RedisService
	adProof      *AdProofService
	cfg          *config.Config
	broadcaster  Broadcaster

	// now is swappable so tests can drive quota resets across UTC days.
	now func() time.Time
}

func NewMiningEngine(redisService *RedisService, adProof *AdProofService, cfg *config.Config) *MiningEngine {
	return &MiningEngine{
		redisService: redisService,
		adProof:      adProof,
		cfg:          cfg,
		now:          time.Now,
	}
}

// SetBroadcaster attaches the live status feed.
func (e *MiningEngine) SetBroadcaster(b Broadcaster) { e.broadcaster = b }

// SetClock overrides the engine clock.
func (e *MiningEngine) SetClock(now func() time.Time) { e.now = now }

// SeedSettings writes the program settings singleton from config when the
// store has none yet.
func (e *MiningEngine) SeedSettings() error {
	seeded, err := e.redisService.SeedSettings(&models.MiningSettings{
		TotalSupply:    e.cfg.TotalSupply,
		EndAt:          e.cfg.ProgramEnd.Unix(),
		MinRatePerUser: e.cfg.MinRatePerUser,
	})
	if err != nil {
		return err
	}
	if seeded {
		log.Printf("Seeded mining settings: supply=%.0f end=%s", e.cfg.TotalSupply, e.cfg.ProgramEnd.Format(time.RFC3339))
	}
	return nil
}

// StartSession starts a mining session for the user, or returns the existing
// one unchanged when a live session is already running. The base rate is
// computed from the remaining supply and the active session count and frozen
// into the new session.
func (e *MiningEngine) StartSession(userID string) (*models.StartSessionResponse, error) {
	now := e.now()

	// Fast path: a live session already exists.
	existing, err := e.redisService.GetActiveSession(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Active && !existing.Expired(now.Unix()) {
		return &models.StartSessionResponse{Session: existing, AlreadyActive: true}, nil
	}

	if _, err := e.redisService.GetProfile(userID); err != nil {
		return nil, err
	}

	settings, err := e.redisService.GetSettings()
	if err != nil {
		return nil, err
	}

	activeUsers, err := e.redisService.CountActiveSessions()
	if err != nil {
		return nil, err
	}
	if activeUsers < 1 {
		activeUsers = 1
	}

	baseRate, err := ComputeBaseRate(settings, now, activeUsers)
	if err != nil {
		return nil, err
	}

	session := &models.MiningSession{
		ID:            models.GenerateSessionID(),
		UserID:        userID,
		StartedAt:     now.Unix(),
		EndsAt:        now.Add(e.cfg.SessionDuration).Unix(),
		LastAccruedAt: now.Unix(),
		BaseRate:      baseRate,
		Multiplier:    1,
		Active:        true,
	}

	// The create script re-checks for a live session atomically; a concurrent
	// double-tap loses the race here and gets the winner's session back.
	sessionID, created, err := e.redisService.CreateSession(session, now)
	if err != nil {
		return nil, err
	}
	if !created {
		winner, err := e.redisService.GetSession(sessionID)
		if err != nil {
			return nil, err
		}
		return &models.StartSessionResponse{Session: winner, AlreadyActive: true}, nil
	}

	metricSessionsStarted.Inc()

	e.appendAudit(&models.MiningAction{
		ID:        models.GenerateActionID(),
		UserID:    userID,
		Type:      models.ActionStartSession,
		SessionID: session.ID,
		CreatedAt: now.Unix(),
	})

	return &models.StartSessionResponse{Session: session, BaseRatePerUser: baseRate}, nil
}

// GetStatus returns the user's live session (nil after expiry) and profile.
// An expired session found here is settled and deactivated lazily, so an
// expired-but-unswept session never counts as active.
func (e *MiningEngine) GetStatus(userID string) (*models.StatusResponse, error) {
	now := e.now()

	profile, err := e.redisService.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	session, err := e.redisService.GetActiveSession(userID)
	if err != nil {
		return nil, err
	}

	if session != nil && (!session.Active || session.Expired(now.Unix())) {
		if session.Active {
			if _, _, err := e.accrueSession(session, now); err != nil {
				log.Printf("Failed to settle expired session %s: %v", session.ID, err)
			}
			// Settlement may have credited the wallet.
			if refreshed, err := e.redisService.GetProfile(userID); err == nil {
				profile = refreshed
			}
		}
		session = nil
	}

	resp := &models.StatusResponse{Session: session, Profile: profile}
	if session != nil {
		resp.EffectiveRate = session.BaseRate * profile.EffectiveMultiplier(now.Unix())
	}
	return resp, nil
}

// ActivateBoost extends the user's boost window and compounds the multiplier,
// gated by the daily quota and the ad-watched precondition.
func (e *MiningEngine) ActivateBoost(req *models.ActivateBoostRequest) (*models.BoostResult, error) {
	now := e.now()

	adType := req.AdType
	if adType == "" {
		adType = "rewarded"
	}

	// The ad confirmation is a distinct precondition, not a quota: reject
	// before touching any state.
	if e.adProof.Enabled() {
		if req.AdToken == "" {
			return nil, ErrAdRequired
		}
		claims, err := e.adProof.VerifyAdToken(req.AdToken, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAdRequired, err)
		}
		if claims.AdType != "" {
			adType = claims.AdType
		}
	} else if !req.AdWatched {
		return nil, ErrAdRequired
	}

	boostHours := req.BoostHours
	if boostHours == 0 {
		boostHours = e.cfg.BoostHours
	}
	factor := req.Multiplier
	if factor == 0 {
		factor = e.cfg.BoostFactor
	}

	if _, err := e.redisService.GetProfile(req.UserID); err != nil {
		return nil, err
	}

	duration := time.Duration(boostHours * float64(time.Hour))
	result, admitted, err := e.redisService.ClaimBoost(
		req.UserID, models.UTCDate(now), now, e.cfg.BoostDailyLimit, duration, factor)
	if err != nil {
		return nil, err
	}
	if !admitted {
		metricBoosts.WithLabelValues("quota_rejected").Inc()
		return nil, ErrBoostLimitReached
	}

	metricBoosts.WithLabelValues("accepted").Inc()

	e.appendAudit(&models.MiningAction{
		ID:                models.GenerateActionID(),
		UserID:            req.UserID,
		Type:              models.ActionActivateBoost,
		AdType:            adType,
		AdWatched:         true,
		MultiplierApplied: factor,
		NewMultiplier:     result.Multiplier,
		CreatedAt:         now.Unix(),
	})

	e.broadcastUserStatus(req.UserID)

	return result, nil
}

// WatchAndEarn grants one fixed ad-watch reward, gated by the daily quota.
// The daily total is split evenly across the allowed watches.
func (e *MiningEngine) WatchAndEarn(req *models.WatchAndEarnRequest) (*models.WatchResult, error) {
	now := e.now()

	if _, err := e.redisService.GetProfile(req.UserID); err != nil {
		return nil, err
	}

	rewardPerAd := e.cfg.DailyWatchReward / float64(e.cfg.WatchDailyLimit)

	result, admitted, err := e.redisService.ClaimWatch(
		req.UserID, models.UTCDate(now), now, e.cfg.WatchDailyLimit, rewardPerAd)
	if err != nil {
		return nil, err
	}
	if !admitted {
		metricWatches.WithLabelValues("quota_rejected").Inc()
		return nil, ErrWatchLimitReached
	}

	metricWatches.WithLabelValues("accepted").Inc()

	adType := req.AdType
	if adType == "" {
		adType = "rewarded"
	}
	e.appendAudit(&models.MiningAction{
		ID:        models.GenerateActionID(),
		UserID:    req.UserID,
		Type:      models.ActionWatchAndEarn,
		AdType:    adType,
		AdWatched: true,
		Reward:    result.Reward,
		CreatedAt: now.Unix(),
	})

	e.broadcastUserStatus(req.UserID)

	return result, nil
}

// History returns the user's recent audit records, newest first.
func (e *MiningEngine) History(userID string, limit int64) ([]*models.MiningAction, error) {
	return e.redisService.GetUserActions(userID, limit)
}

// AccrueEarnings is the periodic sweep: it credits every active session's
// earnings for the elapsed interval (boost-adjusted, clamped to the remaining
// supply), advances the accrual high-water mark, and deactivates sessions
// whose end time has passed.
func (e *MiningEngine) AccrueEarnings() error {
	now := e.now()

	ids, err := e.redisService.ActiveSessionIDs()
	if err != nil {
		return err
	}
	metricActiveSessions.Set(float64(len(ids)))

	for _, id := range ids {
		session, err := e.redisService.GetSession(id)
		if err != nil {
			log.Printf("Accrual: skipping session %s: %v", id, err)
			continue
		}

		_, finished, err := e.accrueSession(session, now)
		if err != nil {
			log.Printf("Accrual: session %s: %v", id, err)
			continue
		}

		if !finished && session.Active {
			e.broadcastUserStatus(session.UserID)
		}
	}

	if settings, err := e.redisService.GetSettings(); err == nil {
		metricSupplyDistributed.Set(settings.SupplyDistributed)
	}

	return nil
}

// accrueSession settles the session's earnings since its accrual mark. The
// elapsed computation, the credit (clamped to remaining supply), the mark
// advance and the expiry flip all happen inside one Lua script, so the cron
// sweep, a status poll and a concurrent duplicate of either cannot credit
// the same interval twice. Exactly one caller sees finished=true for a given
// session and writes its closing audit record.
func (e *MiningEngine) accrueSession(session *models.MiningSession, now time.Time) (float64, bool, error) {
	credited, finished, err := e.redisService.AccrueSession(session, now)
	if err != nil {
		return 0, false, err
	}
	if credited > 0 {
		metricEarningsCredited.Add(credited)
	}

	if finished {
		e.appendAudit(&models.MiningAction{
			ID:        models.GenerateActionID(),
			UserID:    session.UserID,
			Type:      models.ActionAccrual,
			SessionID: session.ID,
			Reward:    credited,
			CreatedAt: now.Unix(),
		})

		if e.broadcaster != nil {
			e.broadcaster.BroadcastSessionEnded(session.UserID, session.ID)
		}
	}

	return credited, finished, nil
}

// SnapshotSupply writes a daily audit record of the distributed supply.
func (e *MiningEngine) SnapshotSupply() error {
	now := e.now()

	settings, err := e.redisService.GetSettings()
	if err != nil {
		return err
	}
	metricSupplyDistributed.Set(settings.SupplyDistributed)

	e.appendAudit(&models.MiningAction{
		ID:        models.GenerateActionID(),
		UserID:    "system",
		Type:      models.ActionSupplySnapshot,
		Reward:    settings.SupplyDistributed,
		CreatedAt: now.Unix(),
	})

	return nil
}

// appendAudit writes the audit record after the state mutation has committed.
// A failed append is logged, not propagated: the record is advisory and the
// caller's mutation already holds.
func (e *MiningEngine) appendAudit(action *models.MiningAction) {
	if err := e.redisService.SaveAction(action); err != nil {
		log.Printf("Failed to append audit record %s: %v", action.ID, err)
	}
}

func (e *MiningEngine) broadcastUserStatus(userID string) {
	if e.broadcaster == nil {
		return
	}

	status, err := e.GetStatus(userID)
	if err != nil {
		log.Printf("Failed to load status for broadcast: %v", err)
		return
	}

	e.broadcaster.BroadcastStatus(userID, status.Profile.WalletBalance, status.EffectiveRate)
}
