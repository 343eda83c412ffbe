package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fuel_dispatch/internal/config"
	"fuel_dispatch/internal/database"
	"fuel_dispatch/internal/handlers"
	"fuel_dispatch/internal/middleware"
	"fuel_dispatch/internal/migrations"
	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/queue"
	"fuel_dispatch/internal/redis"
	"fuel_dispatch/internal/repository"
	"fuel_dispatch/internal/services"
	"fuel_dispatch/pkg/sms"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := migrations.RunMigrations(db, cfg.DefaultPricePerLitre); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	dispatchQueue := queue.New(redisClient.Raw())

	// SMS gateway is optional; without it OTP delivery is logged.
	var smsClient *sms.Client
	if cfg.SMSGatewayURL != "" {
		smsClient = sms.NewClient(cfg.SMSGatewayURL, cfg.SMSGatewayUsername, cfg.SMSGatewayPassword)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	driverRepo := repository.NewDriverRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	rtRepo := repository.NewRefreshTokenRepository(db)
	pricingRepo := repository.NewPricingRepository(db)

	// Initialize services
	notifier := services.NewNotificationService(smsClient)
	tokenService := services.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenTTL)*time.Second)
	authService := services.NewAuthService(redisClient, userRepo, rtRepo, tokenService, notifier, services.AuthConfig{
		OTPTTL:        time.Duration(cfg.OTPExpirySeconds) * time.Second,
		MaxAttempts:   cfg.OTPMaxAttempts,
		LockoutWindow: time.Duration(cfg.OTPLockoutSecs) * time.Second,
		RefreshTTL:    time.Duration(cfg.RefreshTokenTTL) * time.Second,
		PhoneDigits:   cfg.PhoneDigits,
	})
	orderService := services.NewOrderService(orderRepo, driverRepo, pricingRepo, dispatchQueue, cfg.DefaultPricePerLitre)
	adminService := services.NewAdminService(orderRepo, userRepo, driverRepo)

	// Start the dispatch worker
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := services.NewDispatchWorker(dispatchQueue, orderRepo, driverRepo, notifier, services.DispatchConfig{
		Workers:     cfg.DispatchWorkers,
		MaxAttempts: cfg.DispatchMaxAttempts,
		Backoff:     time.Duration(cfg.DispatchBackoffSecs) * time.Second,
	})
	worker.Start(ctx)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	orderHandler := handlers.NewOrderHandler(orderService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Setup routes
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/request-otp", authHandler.RequestOTP)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		orders := api.Group("/orders", middleware.Authenticate(tokenService))
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.PATCH("/:id/status", orderHandler.UpdateStatus)
		}

		admin := api.Group("/admin",
			middleware.Authenticate(tokenService),
			middleware.RequireRoles(models.RoleCRMAdmin, models.RoleSuperAdmin),
		)
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	worker.Wait()
	log.Println("Dispatch worker stopped")
}
