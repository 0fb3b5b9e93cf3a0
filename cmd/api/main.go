package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"mining-rewards-backend/internal/config"
	"mining-rewards-backend/internal/handlers"
	"mining-rewards-backend/internal/middleware"
	"mining-rewards-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	adProof := services.NewAdProofService(cfg.AdProofSecret)
	if adProof.Enabled() {
		log.Println("Ad proof verification enabled")
	}

	engine := services.NewMiningEngine(redisService, adProof, cfg)
	if err := engine.SeedSettings(); err != nil {
		log.Fatalf("Failed to seed mining settings: %v", err)
	}

	wsHandler := handlers.NewWebSocketHandler(engine)
	engine.SetBroadcaster(wsHandler)

	miningHandler := handlers.NewMiningHandler(engine, redisService, cfg)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AccrueSpec, func() {
		if err := engine.AccrueEarnings(); err != nil {
			log.Printf("Accrual sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to register accrual job: %v", err)
	}
	if _, err := scheduler.AddFunc(cfg.SnapshotSpec, func() {
		if err := engine.SnapshotSupply(); err != nil {
			log.Printf("Supply snapshot failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to register supply snapshot job: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.HandleMethodNotAllowed = true

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "not found"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(405, gin.H{"error": "method not allowed"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	mining := router.Group("/api/mining")
	mining.Use(middleware.RateLimitMiddleware(redisService))
	{
		mining.POST("/startSession", miningHandler.StartSession)
		mining.GET("/getStatus", miningHandler.GetStatus)
		mining.POST("/activateBoost", miningHandler.ActivateBoost)
		mining.POST("/watchAndEarnComplete", miningHandler.WatchAndEarnComplete)
		mining.GET("/history", miningHandler.History)
		mining.GET("/ws", wsHandler.HandleWebSocket)
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
