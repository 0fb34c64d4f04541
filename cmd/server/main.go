package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusexam/exam-portal/internal/cache"
	"github.com/campusexam/exam-portal/internal/config"
	"github.com/campusexam/exam-portal/internal/handlers"
	"github.com/campusexam/exam-portal/internal/repositories/postgres"
	"github.com/campusexam/exam-portal/internal/services"
	"github.com/campusexam/exam-portal/internal/utils"
	"github.com/campusexam/exam-portal/pkg"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Database connection failed")
		os.Exit(1)
	}
	if err := postgres.Migrate(db); err != nil {
		logger.LogError(err, "Database migration failed")
		os.Exit(1)
	}

	redisClient, err := pkg.NewRedisClient(cfg)
	if err != nil {
		logger.LogError(err, "Redis connection failed")
		os.Exit(1)
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Event publisher setup failed")
		os.Exit(1)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.ServiceManagerConfig{
		Repo:      postgres.NewRepository(db),
		Logger:    slogger,
		Validator: utils.NewValidator(),
		Cache:     cache.NewRedisCache(redisClient),
		Lock:      cache.NewRedisAdmissionLock(redisClient),
		Publisher: publisher,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TokenTTL,
	})

	router := gin.New()
	router.Use(utils.LoggerMiddleware(logger), gin.Recovery())

	handlerManager := handlers.NewHandlerManager(serviceManager, logger, cfg.JWTSecret)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Graceful shutdown failed")
	}
}
