package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mining-rewards-backend/internal/config"
	"mining-rewards-backend/internal/models"
	"mining-rewards-backend/internal/services"
)

type MiningHandler struct {
	engine       *services.MiningEngine
	redisService *services.RedisService
	cfg          *config.Config
}

func NewMiningHandler(engine *services.MiningEngine, redisService *services.RedisService, cfg *config.Config) *MiningHandler {
	return &MiningHandler{
		engine:       engine,
		redisService: redisService,
		cfg:          cfg,
	}
}

func (h *MiningHandler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.cfg.RequireAdToStart && !req.AdWatched {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Must watch rewarded ad to start mining"})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(req.UserID, "start", services.DefaultRateLimitStart, services.RateLimitWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many session starts. Please wait."})
		return
	}

	result, err := h.engine.StartSession(req.UserID)
	if err != nil {
		h.internalError(c, "start session", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *MiningHandler) GetStatus(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	status, err := h.engine.GetStatus(userID)
	if err != nil {
		h.internalError(c, "get status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *MiningHandler) ActivateBoost(c *gin.Context) {
	var req models.ActivateBoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(req.UserID, "boost", services.DefaultRateLimitBoost, services.RateLimitWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many boost requests. Please wait."})
		return
	}

	result, err := h.engine.ActivateBoost(&req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBoostLimitReached):
			c.JSON(http.StatusForbidden, gin.H{"error": services.ErrBoostLimitReached.Error()})
		case errors.Is(err, services.ErrAdRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User must watch an ad before boosting"})
		default:
			h.internalError(c, "activate boost", err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *MiningHandler) WatchAndEarnComplete(c *gin.Context) {
	var req models.WatchAndEarnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowed, err := h.redisService.CheckRateLimit(req.UserID, "watch", services.DefaultRateLimitWatch, services.RateLimitWindow)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
		return
	}
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many watch requests. Please wait."})
		return
	}

	result, err := h.engine.WatchAndEarn(&req)
	if err != nil {
		if errors.Is(err, services.ErrWatchLimitReached) {
			c.JSON(http.StatusForbidden, gin.H{"error": services.ErrWatchLimitReached.Error()})
			return
		}
		h.internalError(c, "watch and earn", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *MiningHandler) History(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)

	actions, err := h.engine.History(userID, limit)
	if err != nil {
		h.internalError(c, "history", err)
		return
	}
	if actions == nil {
		actions = []*models.MiningAction{}
	}

	c.JSON(http.StatusOK, gin.H{"actions": actions})
}

// internalError logs infrastructure failures server-side and returns an
// opaque message; quota and validation errors never reach this path.
func (h *MiningHandler) internalError(c *gin.Context, op string, err error) {
	log.Printf("Internal error during %s: %v", op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
