package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rohan-b84/stackroom/internal/api"
	"github.com/rohan-b84/stackroom/internal/chat"
	"github.com/rohan-b84/stackroom/internal/config"
	"github.com/rohan-b84/stackroom/internal/db"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"github.com/rohan-b84/stackroom/internal/observ"
	"github.com/rohan-b84/stackroom/internal/realtime"
	"github.com/rohan-b84/stackroom/internal/repository/postgres"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no deadline: take as long as the database needs.
	// Once serving, every request carries its own context.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	// Redis backs the cross-node broadcast relay and the stats cache.
	// Both degrade cleanly, so an unreachable Redis logs a warning and
	// the server comes up single-node instead of refusing to boot.
	rdb := connectRedis(cfg.RedisURL, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	pool := database.Pool()
	orgRepo := postgres.NewOrganizationStore(pool)
	userRepo := postgres.NewUserStore(pool)
	conversationRepo := postgres.NewConversationStore(pool)
	messageRepo := postgres.NewMessageStore(pool)
	applicationRepo := postgres.NewApplicationStore(pool)
	licenseRepo := postgres.NewLicenseStore(pool)
	renewalRepo := postgres.NewRenewalStore(pool)
	recommendationRepo := postgres.NewRecommendationStore(pool)
	spendingRepo := postgres.NewSpendingStore(pool)
	statsRepo := postgres.NewStatsStore(pool)

	hub := realtime.NewHub()
	dispatcher := realtime.NewDispatcher(hub, rdb, logger)
	go dispatcher.Run(context.Background())

	chatService := chat.NewService(conversationRepo, messageRepo, dispatcher, logger)

	authHandler := api.NewAuthHandler(userRepo, orgRepo, cfg.JWTSecret, cfg.TokenTTL, logger)
	userHandler := api.NewUserHandler(userRepo, logger)
	conversationHandler := api.NewConversationHandler(chatService, logger)
	wsHandler := api.NewWSHandler(hub, chatService, cfg.JWTSecret, logger)
	applicationHandler := api.NewApplicationHandler(applicationRepo, chatService, logger)
	licenseHandler := api.NewLicenseHandler(licenseRepo, logger)
	renewalHandler := api.NewRenewalHandler(renewalRepo, logger)
	recommendationHandler := api.NewRecommendationHandler(recommendationRepo, logger)
	dashboardHandler := api.NewDashboardHandler(statsRepo, spendingRepo, rdb, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	logger.Info("starting stackroom",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	// Public: health for load balancers, auth to obtain a token, and the
	// WebSocket endpoint (it does its own token check before upgrading).
	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/signup", authHandler.Signup)
	srv.POST("/v1/auth/login", authHandler.Login)
	srv.GET("/v1/ws", wsHandler.Handle)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", userHandler.GetMe)

	v1.GET("/conversations", conversationHandler.List)
	v1.POST("/conversations", conversationHandler.Create)
	v1.GET("/conversations/:id", conversationHandler.GetByID)
	v1.POST("/conversations/:id/archive", conversationHandler.Archive)
	v1.DELETE("/conversations/:id", conversationHandler.Delete)
	v1.GET("/conversations/:id/messages", conversationHandler.ListMessages)
	v1.POST("/conversations/:id/messages", conversationHandler.PostMessage)

	v1.GET("/applications", applicationHandler.List)
	v1.POST("/applications", applicationHandler.Create)
	v1.GET("/applications/:id", applicationHandler.GetByID)
	v1.PATCH("/applications/:id", applicationHandler.Patch)
	v1.DELETE("/applications/:id", applicationHandler.Delete)

	v1.GET("/licenses", licenseHandler.List)
	v1.POST("/licenses", licenseHandler.Create)
	v1.GET("/licenses/application/:applicationId", licenseHandler.GetByApplication)
	v1.PATCH("/licenses/:id", licenseHandler.Patch)
	v1.DELETE("/licenses/:id", licenseHandler.Delete)

	v1.GET("/renewals", renewalHandler.List)
	v1.POST("/renewals", renewalHandler.Create)
	v1.GET("/renewals/:id", renewalHandler.GetByID)
	v1.GET("/renewals/application/:applicationId", renewalHandler.ListByApplication)
	v1.PATCH("/renewals/:id", renewalHandler.Patch)
	v1.DELETE("/renewals/:id", renewalHandler.Delete)

	v1.GET("/recommendations", recommendationHandler.List)
	v1.POST("/recommendations", recommendationHandler.Create)
	v1.GET("/recommendations/:id", recommendationHandler.GetByID)
	v1.PATCH("/recommendations/:id", recommendationHandler.Patch)
	v1.DELETE("/recommendations/:id", recommendationHandler.Delete)

	v1.GET("/dashboard/stats", dashboardHandler.Stats)
	v1.GET("/spending-history", dashboardHandler.SpendingHistory)
	v1.POST("/spending-history", dashboardHandler.CreateSpendingEntry)

	return srv.Run(":" + cfg.Port)
}

func connectRedis(redisURL string, logger *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, running without redis", zap.Error(err))
		return nil
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis unreachable, running without redis", zap.Error(err))
		client.Close()
		return nil
	}
	logger.Info("redis connection established", zap.String("addr", opts.Addr))
	return client
}
