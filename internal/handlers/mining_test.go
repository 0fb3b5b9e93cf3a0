package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mining-rewards-backend/internal/config"
	"mining-rewards-backend/internal/handlers"
	"mining-rewards-backend/internal/models"
	"mining-rewards-backend/internal/services"

	"github.com/google/uuid"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *services.RedisService) {
	t.Helper()

	cfg := &config.Config{
		RedisURL: "localhost:6379",

		SessionDuration:  8 * time.Hour,
		BoostDailyLimit:  3,
		WatchDailyLimit:  3,
		DailyWatchReward: 1.0,
		BoostHours:       1,
		BoostFactor:      1.1,

		TotalSupply:    1_000_000,
		ProgramEnd:     time.Now().Add(1000 * time.Hour),
		MinRatePerUser: 0.05,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	if err := redisService.SaveSettings(&models.MiningSettings{
		TotalSupply:    cfg.TotalSupply,
		EndAt:          cfg.ProgramEnd.Unix(),
		MinRatePerUser: cfg.MinRatePerUser,
	}); err != nil {
		t.Fatalf("Failed to save settings: %v", err)
	}

	engine := services.NewMiningEngine(redisService, services.NewAdProofService(""), cfg)
	handler := handlers.NewMiningHandler(engine, redisService, cfg)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	mining := router.Group("/api/mining")
	{
		mining.POST("/startSession", handler.StartSession)
		mining.GET("/getStatus", handler.GetStatus)
		mining.POST("/activateBoost", handler.ActivateBoost)
		mining.POST("/watchAndEarnComplete", handler.WatchAndEarnComplete)
		mining.GET("/history", handler.History)
	}

	return router, redisService
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Error response is not {error: string}: %s", w.Body.String())
	}
	return body["error"]
}

func TestStartSessionEndpoint(t *testing.T) {
	router, redisService := setupTestRouter(t)
	defer redisService.Close()

	userID := "test-user-" + uuid.NewString()
	defer redisService.DeleteProfile(userID)

	w := postJSON(router, "/api/mining/startSession", gin.H{"user_id": userID})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.StartSessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Session == nil || resp.Session.UserID != userID {
		t.Fatalf("Response missing session: %s", w.Body.String())
	}
	defer redisService.DeleteSession(resp.Session)

	// Missing user_id is a validation error, not an internal one.
	w = postJSON(router, "/api/mining/startSession", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing user_id, got %d", w.Code)
	}
	if errorBody(t, w) == "" {
		t.Error("Error body should carry a reason")
	}
}

func TestGetStatusEndpoint(t *testing.T) {
	router, redisService := setupTestRouter(t)
	defer redisService.Close()

	userID := "test-user-" + uuid.NewString()
	defer redisService.DeleteProfile(userID)

	req := httptest.NewRequest(http.MethodGet, "/api/mining/getStatus?user_id="+userID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Session != nil {
		t.Error("User without a session should get session: null")
	}
	if resp.Profile == nil || resp.Profile.UserID != userID {
		t.Error("Status should include the provisioned profile")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/mining/getStatus", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing user_id, got %d", w.Code)
	}
}

func TestActivateBoostEndpointErrors(t *testing.T) {
	router, redisService := setupTestRouter(t)
	defer redisService.Close()

	userID := "test-user-" + uuid.NewString()
	defer redisService.DeleteProfile(userID)
	defer redisService.ClearRateLimit(userID, "boost")

	// Missing ad confirmation → 400, distinct from the quota error.
	w := postJSON(router, "/api/mining/activateBoost", gin.H{"user_id": userID})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without ad confirmation, got %d", w.Code)
	}

	for i := 0; i < 3; i++ {
		w = postJSON(router, "/api/mining/activateBoost", gin.H{"user_id": userID, "ad_watched": true})
		if w.Code != http.StatusOK {
			t.Fatalf("Boost %d expected 200, got %d: %s", i+1, w.Code, w.Body.String())
		}
	}

	w = postJSON(router, "/api/mining/activateBoost", gin.H{"user_id": userID, "ad_watched": true})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 at the daily limit, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "boosts daily limit reached" {
		t.Errorf("Expected quota reason string, got %q", got)
	}
}

func TestWatchAndEarnEndpoint(t *testing.T) {
	router, redisService := setupTestRouter(t)
	defer redisService.Close()

	userID := "test-user-" + uuid.NewString()
	defer redisService.DeleteProfile(userID)
	defer redisService.ClearRateLimit(userID, "watch")

	for i := 1; i <= 3; i++ {
		w := postJSON(router, "/api/mining/watchAndEarnComplete", gin.H{"user_id": userID})
		if w.Code != http.StatusOK {
			t.Fatalf("Watch %d expected 200, got %d: %s", i, w.Code, w.Body.String())
		}

		var resp models.WatchResult
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if resp.DailyWatchedAds != int64(i) {
			t.Errorf("Expected %d watches, got %d", i, resp.DailyWatchedAds)
		}
	}

	w := postJSON(router, "/api/mining/watchAndEarnComplete", gin.H{"user_id": userID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 at the daily limit, got %d", w.Code)
	}
	if got := errorBody(t, w); got != "daily watch limit reached" {
		t.Errorf("Expected quota reason string, got %q", got)
	}
}

func TestRoutingErrors(t *testing.T) {
	router, redisService := setupTestRouter(t)
	defer redisService.Close()

	// Wrong method on a known route → 405.
	req := httptest.NewRequest(http.MethodGet, "/api/mining/startSession", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", w.Code)
	}

	// Unknown route → 404.
	req = httptest.NewRequest(http.MethodGet, "/api/mining/doesNotExist", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if errorBody(t, w) == "" {
		t.Error("404 body should be {error: string}")
	}
}
