package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"loopimmo/server/config"
	"loopimmo/server/internal/api"
	"loopimmo/server/internal/database"
	"loopimmo/server/internal/geocoding"
	"loopimmo/server/internal/notify"
	"loopimmo/server/internal/photos"
	"loopimmo/server/internal/processor"
	"loopimmo/server/internal/queue"
	"loopimmo/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("Failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	gin.SetMode(cfg.Server.Mode)

	schedule, err := config.LoadFeeSchedule(cfg.Pricing.ScheduleFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load fee schedule")
	}

	if cfg.Database.Driver == "sqlite" {
		dbPath := strings.SplitN(cfg.Database.DSN, "?", 2)[0]
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			logger.WithError(err).Fatal("Failed to create database directory")
		}
		logger.Infof("Using database at: %s", dbPath)
	}

	db, err := database.NewDatabase(cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// Activity events are persisted and forwarded to Telegram off the request path
	eventQueue := queue.NewEventQueue(cfg.Events.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(db, eventQueue, cfg, logger)
	batchProcessor.Start()

	telegram := notify.NewService(notify.Config{
		Enabled:  cfg.Telegram.Enabled,
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	}, logger)
	eventQueue.Subscribe(telegram.NotifyEvents)
	eventQueue.Start()

	var geocoder *geocoding.Geocoder
	if cfg.Geocoding.Enabled {
		cacheDir := cfg.Geocoding.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "loopimmo", "geocode_cache")
		}
		geocoder = geocoding.NewGeocoder(logger, geocoding.Options{CacheDir: cacheDir})
	}

	var photoStore photos.Store
	if cfg.Photos.Bucket != "" {
		store, err := photos.NewS3Store(context.Background(), cfg.Photos.Bucket, cfg.Photos.Region, cfg.Photos.UploadExpiry)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure photo storage")
		}
		photoStore = store
	} else {
		logger.Warn("PHOTOS_BUCKET is not set, photo uploads are disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schedulerOpts := scheduler.Options{
		Interval:     cfg.Scheduler.Interval,
		ReminderLead: cfg.Scheduler.ReminderLead,
	}
	handlerOpts := api.Options{
		Schedule:           schedule,
		Events:             eventQueue,
		Photos:             photoStore,
		DefaultPricePerSqm: cfg.Pricing.DefaultPricePerSqm,
	}
	// Assigning a nil *Geocoder would produce a non-nil interface
	if geocoder != nil {
		schedulerOpts.Geocoder = geocoder
		handlerOpts.Geocoder = geocoder
	}

	jobs := scheduler.NewScheduler(db, eventQueue, schedulerOpts, logger)
	jobs.Start(ctx)

	handler := api.NewHandler(db, logger, handlerOpts)

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(router, handler, api.RouteConfig{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		Limiter:   api.NewClientLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Stop producers before draining the queue
	jobs.Stop()
	if err := eventQueue.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close event queue")
	}
	eventQueue.Wait()
	batchProcessor.Stop()

	if err := db.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
	logger.Info("Server stopped")
}
