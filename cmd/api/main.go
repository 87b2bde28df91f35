package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"crash-rounds-backend/internal/config"
	"crash-rounds-backend/internal/handlers"
	"crash-rounds-backend/internal/middleware"
	"crash-rounds-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := services.NewRoundStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)

	gateway := services.NewRetryingGateway(
		services.NewLedgerClient(cfg.LedgerURL, cfg.LedgerTimeout),
		services.DefaultRetryPolicy(),
	)

	fairness := services.NewFairnessEngine()
	wsHandler := handlers.NewWebSocketHandler()
	ledger := services.NewPlayerLedger(gateway, wsHandler, store)

	schedulerCfg := services.DefaultSchedulerConfig()
	schedulerCfg.Countdown = cfg.Countdown
	schedulerCfg.Summary = cfg.Summary
	schedulerCfg.GrowthFactor = cfg.GrowthFactor

	scheduler := services.NewRoundScheduler(schedulerCfg, fairness, ledger, gateway, wsHandler, store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)

	roundHandler := handlers.NewRoundHandler(scheduler, ledger, fairness, store)
	userHandler := handlers.NewUserHandler(store, jwtService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/login", userHandler.Login)
	router.GET("/ws", wsHandler.HandleWebSocket)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	protected.Use(middleware.RateLimitMiddleware(store))
	{
		protected.GET("/me", userHandler.GetCurrentPlayer)
		protected.GET("/balance", userHandler.GetBalance)

		rounds := protected.Group("/rounds")
		{
			rounds.POST("/bet", roundHandler.PlaceBet)
			rounds.POST("/cashout", roundHandler.CashOut)
			rounds.GET("/current", roundHandler.GetCurrentRound)
			rounds.GET("/snapshot", roundHandler.GetSnapshot)
			rounds.GET("/history", roundHandler.GetRoundHistory)
			rounds.POST("/verify", roundHandler.VerifyRound)
			rounds.GET("/reconciliation", roundHandler.GetReconciliationQueue)
		}
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
