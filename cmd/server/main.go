package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkang/foodlane-backend/config"
	"github.com/dkang/foodlane-backend/internal/app/controller"
	"github.com/dkang/foodlane-backend/internal/app/service"
	"github.com/dkang/foodlane-backend/internal/db"
	"github.com/dkang/foodlane-backend/internal/middleware"
	"github.com/dkang/foodlane-backend/internal/router"
	"github.com/dkang/foodlane-backend/internal/scheduler"
	"github.com/dkang/foodlane-backend/pkg/logger"
	"github.com/dkang/foodlane-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting FoodLane Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	ctx := context.Background()

	// Initialize the document store
	store, err := db.New(ctx, &cfg.Mongo)
	if err != nil {
		logger.Fatal("Failed to initialize MongoDB", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Error("Failed to close MongoDB connection", err)
		}
	}()

	// Initialize redis; the service degrades to uncached reads and
	// cookie-only logout without it
	cache, err := redis.New(&cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, continuing without cache and token blacklist", map[string]interface{}{
			"error": err.Error(),
		})
		cache = nil
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize services
	var popularCache service.Cache
	var revoker controller.TokenRevoker
	var blacklist middleware.TokenBlacklist
	if cache != nil {
		popularCache = cache
		revoker = cache
		blacklist = cache
	}
	popularFoods := service.NewPopularFoodsService(store.Foods, popularCache, cfg.Cache.TopFoodsTTL)
	checkout := service.NewCheckoutService(store.Foods, store.Orders)

	// Initialize controllers
	authController := controller.NewAuthController(cfg.JWT.Secret, cfg.JWT.TokenExpiry, cfg.Server.IsProduction(), revoker)
	foodController := controller.NewFoodController(store.Foods, popularFoods)
	wishlistController := controller.NewWishlistController(store.Wishlists)
	orderController := controller.NewOrderController(store.Orders, checkout)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, blacklist)

	// Setup router
	r := router.NewRouter(
		authController,
		foodController,
		wishlistController,
		orderController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start the cache refresh scheduler
	foodsScheduler := scheduler.NewPopularFoodsScheduler(popularFoods, cfg.Cache.RefreshSchedule)
	if cache != nil {
		if err := foodsScheduler.Start(); err != nil {
			logger.Warn("Popular foods scheduler not running", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: engine,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	foodsScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
