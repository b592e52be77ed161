package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/maintenance-orders-api/config"
	"github.com/kendall-kelly/maintenance-orders-api/controllers"
	"github.com/kendall-kelly/maintenance-orders-api/middleware"
	"github.com/kendall-kelly/maintenance-orders-api/models"
	"github.com/kendall-kelly/maintenance-orders-api/repositories"
	"github.com/kendall-kelly/maintenance-orders-api/services"
	"github.com/kendall-kelly/maintenance-orders-api/store"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.ConfigureLogger(cfg)
	logger.Info().Str("env", cfg.GoEnv).Msg("starting Maintenance Orders API server")

	db, err := config.ConnectDatabase(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	kv := store.NewGormStore(db, cfg.StoreQuotaBytes)
	if err := store.Probe(kv); err != nil {
		logger.Fatal().Err(err).Msg("storage is not usable")
	}

	handlers, err := newHandlers(context.Background(), cfg, kv, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize services")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg, handlers, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info().Str("addr", srv.Addr).Msgf("server is running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-quit
	logger.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info().Msg("server stopped")
}

// newHandlers wires repositories and services over kv. Notifications and
// backups are only enabled when their endpoints are configured.
func newHandlers(ctx context.Context, cfg *config.Config, kv store.Store, logger zerolog.Logger) (*controllers.Handlers, error) {
	orders := repositories.NewOrderRepository(kv, logger)
	staff := repositories.NewStaffRepository(kv, logger)
	settings := repositories.NewSettingsStore(kv, logger)

	var notifier services.Notifier
	if cfg.NotificationsEnabled() {
		notifier = services.NewEmailNotifier(cfg.MailWebhookURL, cfg.MailTimeout)
	} else {
		logger.Info().Msg("MAIL_WEBHOOK_URL not set, signed order emails are disabled")
	}

	var backups services.BackupStore
	if cfg.BackupEnabled() {
		s3Store, err := services.NewS3BackupStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backups = s3Store
	} else {
		logger.Info().Msg("AWS_S3_BUCKET not set, backups are disabled")
	}

	factory := &models.OrderFactory{
		Links: models.SignatureLinkBuilder{BaseURL: cfg.BaseURL, Path: cfg.SignaturePath},
	}

	return &controllers.Handlers{
		Orders: services.NewOrderService(orders, staff, settings, services.OrderServiceOptions{
			Factory:           factory,
			Notifier:          notifier,
			RequireKnownStaff: cfg.RequireKnownStaff,
		}, logger),
		Staff:    services.NewStaffService(staff, nil, logger),
		Data:     services.NewDataService(kv, orders, staff, settings, backups, nil, logger),
		Settings: settings,
		Store:    kv,
		Logger:   logger,
	}, nil
}

// setupRouter creates the gin engine with middleware and every /api/v1 route
func setupRouter(cfg *config.Config, handlers *controllers.Handlers, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.CORSAllowedOrigins)))

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		handlers.RegisterRoutes(v1)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Maintenance Orders API is running",
	})
}
