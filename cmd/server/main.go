package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwyun/staffpass-backend/config"
	"github.com/jwyun/staffpass-backend/internal/app/controller"
	"github.com/jwyun/staffpass-backend/internal/app/repository"
	"github.com/jwyun/staffpass-backend/internal/app/service"
	"github.com/jwyun/staffpass-backend/internal/db"
	"github.com/jwyun/staffpass-backend/internal/middleware"
	"github.com/jwyun/staffpass-backend/internal/router"
	"github.com/jwyun/staffpass-backend/internal/scheduler"
	"github.com/jwyun/staffpass-backend/internal/storage"
	"github.com/jwyun/staffpass-backend/internal/websocket"
	"github.com/jwyun/staffpass-backend/pkg/logger"
	"github.com/jwyun/staffpass-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting StaffPass Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Seed database (optional)
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize Redis (토큰 블랙리스트, 채점 중복 방지 마커).
	// 없어도 서버는 뜨되 해당 기능만 비활성화된다.
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, token blacklist and score dedup disabled", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	// Initialize websocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	storeRepo := repository.NewStoreRepository(db.GetDB())
	rosterRepo := repository.NewRosterRepository(db.GetDB())
	verificationRepo := repository.NewVerificationRepository(db.GetDB())
	notificationRepo := repository.NewNotificationRepository(db.GetDB())

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	storeService := service.NewStoreService(storeRepo)
	rosterService := service.NewRosterService(rosterRepo, storeRepo)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, hub)
	scoringService := service.NewScoringService(verificationRepo, storeRepo, rosterRepo)
	verificationService := service.NewVerificationService(
		verificationRepo,
		userRepo,
		scoringService,
		notificationService,
		db.GetDB(),
	)

	// 웹소켓 클라이언트의 mark_read 메시지를 알림 서비스에 연결
	hub.MarkReadFunc = func(userID, notificationID uint) {
		if _, err := notificationService.MarkAsRead(notificationID, userID); err != nil {
			logger.Warn("Failed to mark notification as read via websocket", map[string]interface{}{
				"user_id":         userID,
				"notification_id": notificationID,
				"error":           err.Error(),
			})
		}
	}

	// Initialize S3 storage for evidence uploads
	s3Storage := storage.NewS3Storage(
		cfg.S3.Region,
		cfg.S3.Bucket,
		cfg.S3.AccessKeyID,
		cfg.S3.SecretAccessKey,
		cfg.S3.BaseURL,
	)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	storeController := controller.NewStoreController(storeService)
	rosterController := controller.NewRosterController(rosterService)
	verificationController := controller.NewVerificationController(verificationService, scoringService)
	notificationController := controller.NewNotificationController(notificationService, hub)
	uploadController := controller.NewUploadController(s3Storage)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		storeController,
		rosterController,
		verificationController,
		notificationController,
		uploadController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start reminder scheduler
	reminderScheduler := scheduler.NewReminderScheduler(
		verificationService,
		cfg.Reminder.CronSpec,
		cfg.Reminder.StaleAfter,
	)
	if err := reminderScheduler.Start(); err != nil {
		logger.Fatal("Failed to start reminder scheduler", err)
	}
	defer reminderScheduler.Stop()

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
