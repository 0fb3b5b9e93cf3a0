package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"mining-rewards-backend/internal/config"
	"mining-rewards-backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisService is the data-store layer. Profiles, sessions, the settings
// singleton and audit records are JSON blobs under the mining:* keys; every
// read-check-mutate unit (quota claims, session creation, earnings credit)
// runs as a single Lua script so concurrent requests cannot interleave
// between the check and the write.
type RedisService struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	service := &RedisService{
		client: client,
		ctx:    ctx,
	}

	return service, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// GetProfile loads a user's profile, provisioning a fresh one on first touch.
func (s *RedisService) GetProfile(userID string) (*models.Profile, error) {
	key := fmt.Sprintf(KeyProfile, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		profile := models.NewProfile(userID, time.Now().Unix())
		if err := s.SaveProfile(profile); err != nil {
			return nil, fmt.Errorf("failed to create profile: %v", err)
		}
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %v", err)
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %v", err)
	}

	return &profile, nil
}

func (s *RedisService) SaveProfile(profile *models.Profile) error {
	key := fmt.Sprintf(KeyProfile, profile.UserID)

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) DeleteProfile(userID string) error {
	key := fmt.Sprintf(KeyProfile, userID)
	return s.client.Del(s.ctx, key).Err()
}

func (s *RedisService) GetSettings() (*models.MiningSettings, error) {
	data, err := s.client.Get(s.ctx, KeySettings).Result()
	if err == redis.Nil {
		return nil, ErrSettingsMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %v", err)
	}

	var settings models.MiningSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %v", err)
	}

	return &settings, nil
}

// SeedSettings writes the settings singleton only when it does not exist yet,
// so a restart never clobbers live supply accounting.
func (s *RedisService) SeedSettings(settings *models.MiningSettings) (bool, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return false, fmt.Errorf("failed to marshal settings: %v", err)
	}
	return s.client.SetNX(s.ctx, KeySettings, data, 0).Result()
}

func (s *RedisService) SaveSettings(settings *models.MiningSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %v", err)
	}
	return s.client.Set(s.ctx, KeySettings, data, 0).Err()
}

func (s *RedisService) DeleteSettings() error {
	return s.client.Del(s.ctx, KeySettings).Err()
}

func (s *RedisService) GetSession(sessionID string) (*models.MiningSession, error) {
	key := fmt.Sprintf(KeySession, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	var session models.MiningSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %v", err)
	}

	return &session, nil
}

func (s *RedisService) SaveSession(session *models.MiningSession) error {
	key := fmt.Sprintf(KeySession, session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

// GetActiveSession returns the session the user's active pointer references,
// or nil when the user has none. Expiry is the caller's concern.
func (s *RedisService) GetActiveSession(userID string) (*models.MiningSession, error) {
	pointer := fmt.Sprintf(KeyUserActive, userID)

	sessionID, err := s.client.Get(s.ctx, pointer).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session pointer: %v", err)
	}

	session, err := s.GetSession(sessionID)
	if err == ErrSessionNotFound {
		s.client.Del(s.ctx, pointer)
		return nil, nil
	}
	return session, err
}

func (s *RedisService) CountActiveSessions() (int64, error) {
	count, err := s.client.SCard(s.ctx, KeyActiveSessions).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count active sessions: %v", err)
	}
	return count, nil
}

func (s *RedisService) ActiveSessionIDs() ([]string, error) {
	ids, err := s.client.SMembers(s.ctx, KeyActiveSessions).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %v", err)
	}
	return ids, nil
}

// DeactivateSession flips the session inactive, drops it from the active set
// and clears the user's active pointer if it still references this session.
func (s *RedisService) DeactivateSession(session *models.MiningSession) error {
	session.Active = false
	if err := s.SaveSession(session); err != nil {
		return err
	}

	if err := s.client.SRem(s.ctx, KeyActiveSessions, session.ID).Err(); err != nil {
		return fmt.Errorf("failed to remove from active set: %v", err)
	}

	pointer := fmt.Sprintf(KeyUserActive, session.UserID)
	current, err := s.client.Get(s.ctx, pointer).Result()
	if err == nil && current == session.ID {
		s.client.Del(s.ctx, pointer)
	}

	return nil
}

func (s *RedisService) DeleteSession(session *models.MiningSession) error {
	s.client.SRem(s.ctx, KeyActiveSessions, session.ID)
	s.client.Del(s.ctx, fmt.Sprintf(KeyUserActive, session.UserID))
	return s.client.Del(s.ctx, fmt.Sprintf(KeySession, session.ID)).Err()
}

// createSessionScript enforces at-most-one-active-session-per-user: the
// pointer check, the lazy deactivation of an expired predecessor and the new
// session insert happen in one atomic unit. Returns {0, existing_id} when a
// live session already exists, {1, new_id} after inserting.
var createSessionScript = redis.NewScript(`
	local pointer = KEYS[1]
	local active_set = KEYS[2]
	local new_key = KEYS[3]
	local session_json = ARGV[1]
	local session_id = ARGV[2]
	local now = tonumber(ARGV[3])
	local prefix = ARGV[4]

	local current = redis.call("GET", pointer)
	if current then
		local data = redis.call("GET", prefix .. current)
		if data then
			local session = cjson.decode(data)
			if session.active and tonumber(session.ends_at) > now then
				return {0, current}
			end
			session.active = false
			redis.call("SET", prefix .. current, cjson.encode(session))
		end
		redis.call("SREM", active_set, current)
		redis.call("DEL", pointer)
	end

	redis.call("SET", new_key, session_json)
	redis.call("SET", pointer, session_id)
	redis.call("SADD", active_set, session_id)

	return {1, session_id}
`)

// CreateSession atomically inserts the session unless the user already has a
// live one. Returns (sessionID, created): when created is false, sessionID is
// the pre-existing active session.
func (s *RedisService) CreateSession(session *models.MiningSession, now time.Time) (string, bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal session: %v", err)
	}

	keys := []string{
		fmt.Sprintf(KeyUserActive, session.UserID),
		KeyActiveSessions,
		fmt.Sprintf(KeySession, session.ID),
	}

	res, err := createSessionScript.Run(s.ctx, s.client, keys,
		string(data), session.ID, now.Unix(), KeySessionPrefix).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to create session: %v", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return "", false, fmt.Errorf("unexpected create session reply: %v", res)
	}

	created := reply[0].(int64) == 1
	sessionID, _ := reply[1].(string)

	return sessionID, created, nil
}

// claimBoostScript is the boost-quota unit: reset the day bucket if stale,
// reject at the cap, otherwise extend the boost window and compound the
// multiplier, all in one atomic step, so N concurrent claims admit exactly
// the remaining quota. Floats cross the Lua boundary as strings because Redis
// truncates Lua numbers to integers.
var claimBoostScript = redis.NewScript(`
	local key = KEYS[1]
	local today = ARGV[1]
	local cap = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local duration = tonumber(ARGV[4])
	local factor = tonumber(ARGV[5])

	local data = redis.call("GET", key)
	if not data then
		return redis.error_reply("profile not found")
	end
	local profile = cjson.decode(data)

	if profile.last_boost_reset ~= today then
		profile.boosts_used_today = 0
		profile.last_boost_reset = today
	end

	if profile.boosts_used_today >= cap then
		return {0, "0", "0", profile.boosts_used_today}
	end

	local expires = tonumber(profile.boost_expires_at) or 0
	local multiplier = tonumber(profile.multiplier) or 1
	local base = now
	if expires > now then
		base = expires
	else
		multiplier = 1
	end

	profile.boost_expires_at = base + duration
	profile.multiplier = multiplier * factor
	profile.boosts_used_today = profile.boosts_used_today + 1
	profile.updated_at = now

	redis.call("SET", key, cjson.encode(profile))

	return {1, tostring(profile.boost_expires_at), tostring(profile.multiplier), profile.boosts_used_today}
`)

// ClaimBoost runs the atomic boost-quota claim. When admitted is false the
// daily cap was already spent and nothing was mutated.
func (s *RedisService) ClaimBoost(userID, today string, now time.Time, cap int, duration time.Duration, factor float64) (*models.BoostResult, bool, error) {
	key := fmt.Sprintf(KeyProfile, userID)

	res, err := claimBoostScript.Run(s.ctx, s.client, []string{key},
		today, cap, now.Unix(), int64(duration.Seconds()), factor).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim boost: %v", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 4 {
		return nil, false, fmt.Errorf("unexpected boost claim reply: %v", res)
	}

	used, _ := reply[3].(int64)
	if reply[0].(int64) == 0 {
		return &models.BoostResult{BoostsUsedToday: used}, false, nil
	}

	expiresAt, err := strconv.ParseFloat(reply[1].(string), 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad boost expiry in reply: %v", err)
	}
	multiplier, err := strconv.ParseFloat(reply[2].(string), 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad multiplier in reply: %v", err)
	}

	return &models.BoostResult{
		BoostExpiresAt:  int64(expiresAt),
		Multiplier:      multiplier,
		BoostsUsedToday: used,
	}, true, nil
}

// claimWatchScript is the watch-quota unit: reset the day bucket if stale,
// reject at the cap, otherwise credit the per-ad reward to the wallet and
// mirror it into supply_distributed, atomically. The reward is clamped to
// the remaining supply so supply_distributed never exceeds total_supply; the
// watch still consumes its quota slot even when the clamp pays zero.
var claimWatchScript = redis.NewScript(`
	local profile_key = KEYS[1]
	local settings_key = KEYS[2]
	local today = ARGV[1]
	local cap = tonumber(ARGV[2])
	local reward = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])

	local data = redis.call("GET", profile_key)
	if not data then
		return redis.error_reply("profile not found")
	end
	local profile = cjson.decode(data)

	if profile.last_watch_reset ~= today then
		profile.daily_watched_ads = 0
		profile.last_watch_reset = today
	end

	if profile.daily_watched_ads >= cap then
		return {0, profile.daily_watched_ads, "0"}
	end

	local settings
	local sdata = redis.call("GET", settings_key)
	if sdata then
		settings = cjson.decode(sdata)
		local remaining = (tonumber(settings.total_supply) or 0) - (tonumber(settings.supply_distributed) or 0)
		if remaining < 0 then
			remaining = 0
		end
		if reward > remaining then
			reward = remaining
		end
	end

	profile.daily_watched_ads = profile.daily_watched_ads + 1
	profile.wallet_balance = (tonumber(profile.wallet_balance) or 0) + reward
	profile.updated_at = now
	redis.call("SET", profile_key, cjson.encode(profile))

	if settings then
		settings.supply_distributed = (tonumber(settings.supply_distributed) or 0) + reward
		redis.call("SET", settings_key, cjson.encode(settings))
	end

	return {1, profile.daily_watched_ads, tostring(reward)}
`)

// ClaimWatch runs the atomic watch-and-earn claim.
func (s *RedisService) ClaimWatch(userID, today string, now time.Time, cap int, rewardPerAd float64) (*models.WatchResult, bool, error) {
	keys := []string{fmt.Sprintf(KeyProfile, userID), KeySettings}

	res, err := claimWatchScript.Run(s.ctx, s.client, keys,
		today, cap, rewardPerAd, now.Unix()).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to claim watch: %v", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 3 {
		return nil, false, fmt.Errorf("unexpected watch claim reply: %v", res)
	}

	watched, _ := reply[1].(int64)
	if reply[0].(int64) == 0 {
		return &models.WatchResult{DailyWatchedAds: watched}, false, nil
	}

	reward, err := strconv.ParseFloat(reply[2].(string), 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad reward in reply: %v", err)
	}

	return &models.WatchResult{DailyWatchedAds: watched, Reward: reward}, true, nil
}

// accrueSessionScript settles a session's earnings in one atomic unit. The
// elapsed interval is computed from the stored last_accrued_at and the mark
// advances in the same step, so concurrent settlements of the same session
// (status polls racing the sweep, overlapping sweeps) credit each interval
// exactly once. The credit is clamped to the remaining supply, and the
// expiry flip plus active-set cleanup ride in the same unit, so at most one
// caller observes finished=1 for a given session. Boosted overlap is
// measured from the interval start: a boost activated mid-interval counts
// for the whole interval, an error bounded by one accrual tick.
var accrueSessionScript = redis.NewScript(`
	local session_key = KEYS[1]
	local profile_key = KEYS[2]
	local settings_key = KEYS[3]
	local active_set = KEYS[4]
	local pointer = KEYS[5]
	local now = tonumber(ARGV[1])
	local session_id = ARGV[2]

	local data = redis.call("GET", session_key)
	if not data then
		redis.call("SREM", active_set, session_id)
		return {0, "0"}
	end
	local session = cjson.decode(data)

	if not session.active then
		redis.call("SREM", active_set, session_id)
		if redis.call("GET", pointer) == session_id then
			redis.call("DEL", pointer)
		end
		return {0, "0"}
	end

	local until_ts = now
	local ends_at = tonumber(session.ends_at)
	if until_ts > ends_at then
		until_ts = ends_at
	end

	local credited = 0
	local elapsed = until_ts - tonumber(session.last_accrued_at)
	if elapsed > 0 then
		local pdata = redis.call("GET", profile_key)
		local sdata = redis.call("GET", settings_key)
		if pdata and sdata then
			local profile = cjson.decode(pdata)
			local settings = cjson.decode(sdata)

			local mult = tonumber(profile.multiplier) or 1
			local boost_exp = tonumber(profile.boost_expires_at) or 0
			local last = tonumber(session.last_accrued_at)
			local boosted = 0
			if mult > 1 and boost_exp > last then
				local boosted_until = boost_exp
				if boosted_until > until_ts then
					boosted_until = until_ts
				end
				boosted = boosted_until - last
			end

			local earned = tonumber(session.base_rate) * (elapsed + (mult - 1) * boosted) / 3600
			local remaining = (tonumber(settings.total_supply) or 0) - (tonumber(settings.supply_distributed) or 0)
			if remaining < 0 then
				remaining = 0
			end
			if earned > remaining then
				earned = remaining
			end

			if earned > 0 then
				profile.wallet_balance = (tonumber(profile.wallet_balance) or 0) + earned
				profile.updated_at = now
				redis.call("SET", profile_key, cjson.encode(profile))

				settings.supply_distributed = (tonumber(settings.supply_distributed) or 0) + earned
				redis.call("SET", settings_key, cjson.encode(settings))

				credited = earned
			end
		end
		session.last_accrued_at = until_ts
	end

	local finished = 0
	if now >= ends_at then
		session.active = false
		finished = 1
		redis.call("SREM", active_set, session_id)
		if redis.call("GET", pointer) == session_id then
			redis.call("DEL", pointer)
		end
	end

	redis.call("SET", session_key, cjson.encode(session))

	return {finished, tostring(credited)}
`)

// AccrueSession atomically credits the session's earnings since its accrual
// mark and advances the mark. finished is true for exactly the call that
// flipped the session inactive at expiry; every other concurrent settlement
// of the same session credits nothing extra.
func (s *RedisService) AccrueSession(session *models.MiningSession, now time.Time) (float64, bool, error) {
	keys := []string{
		fmt.Sprintf(KeySession, session.ID),
		fmt.Sprintf(KeyProfile, session.UserID),
		KeySettings,
		KeyActiveSessions,
		fmt.Sprintf(KeyUserActive, session.UserID),
	}

	res, err := accrueSessionScript.Run(s.ctx, s.client, keys, now.Unix(), session.ID).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to accrue session: %v", err)
	}

	reply, ok := res.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, false, fmt.Errorf("unexpected accrue reply: %v", res)
	}

	finished := reply[0].(int64) == 1
	credited, err := strconv.ParseFloat(reply[1].(string), 64)
	if err != nil {
		return 0, false, fmt.Errorf("bad credited amount in reply: %v", err)
	}

	return credited, finished, nil
}

// SaveAction appends an immutable audit record and indexes it under the user.
// Records themselves are never expired or deleted; only the per-user index is
// trimmed. Appending after the state mutation commits is deliberate: a failed
// append is retriable without re-running the mutation.
func (s *RedisService) SaveAction(action *models.MiningAction) error {
	key := fmt.Sprintf(KeyAction, action.ID)

	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %v", err)
	}

	if err := s.client.Set(s.ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save action: %v", err)
	}

	indexKey := fmt.Sprintf(KeyUserActions, action.UserID)
	if err := s.client.ZAdd(s.ctx, indexKey, redis.Z{
		Score:  float64(action.CreatedAt),
		Member: action.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to index action: %v", err)
	}

	s.client.ZRemRangeByRank(s.ctx, indexKey, 0, -(MaxIndexedActions + 1))

	return nil
}

func (s *RedisService) GetUserActions(userID string, limit int64) ([]*models.MiningAction, error) {
	if limit <= 0 || limit > MaxIndexedActions {
		limit = 50
	}

	indexKey := fmt.Sprintf(KeyUserActions, userID)

	ids, err := s.client.ZRevRange(s.ctx, indexKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get action IDs: %v", err)
	}

	var actions []*models.MiningAction
	for _, id := range ids {
		data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyAction, id)).Result()
		if err != nil {
			continue
		}

		var action models.MiningAction
		if err := json.Unmarshal([]byte(data), &action); err != nil {
			continue
		}

		actions = append(actions, &action)
	}

	return actions, nil
}

func (s *RedisService) CheckRateLimit(userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisService) ClearRateLimit(userID, action string) error {
	key := fmt.Sprintf(KeyRateLimit, userID, action)
	return s.client.Del(s.ctx, key).Err()
}
