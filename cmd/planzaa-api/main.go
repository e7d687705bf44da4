package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/conghuan0502/planzaa-api/api/swagger"
	"github.com/conghuan0502/planzaa-api/internal/handler"
	"github.com/conghuan0502/planzaa-api/internal/middleware"
	"github.com/conghuan0502/planzaa-api/internal/repository"
	"github.com/conghuan0502/planzaa-api/internal/service"
	"github.com/conghuan0502/planzaa-api/pkg/cache"
	"github.com/conghuan0502/planzaa-api/pkg/config"
	"github.com/conghuan0502/planzaa-api/pkg/database"
	"github.com/conghuan0502/planzaa-api/pkg/jobs"
	"github.com/conghuan0502/planzaa-api/pkg/logger"
	corsmiddleware "github.com/conghuan0502/planzaa-api/pkg/middleware/cors"
	reqidmiddleware "github.com/conghuan0502/planzaa-api/pkg/middleware/requestid"
	"github.com/conghuan0502/planzaa-api/pkg/push"
)

// @title Planzaa API
// @version 0.1.0
// @description Event management backend with scheduled push reminders
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	eventSvc := service.NewEventService(eventRepo, cacheRepo, validate, logr)
	weatherSvc := service.NewWeatherService(eventRepo, cacheRepo, logr, cfg.Weather)

	pushGateway := push.NewHTTPGateway(cfg.Push, logr)
	reminderSvc := service.NewReminderService(eventRepo, pushGateway, nil, metrics, logr, service.ReminderServiceConfig{
		Cadence:           cfg.Reminders.Cadence,
		WorkerConcurrency: cfg.Reminders.WorkerConcurrency,
	})

	runner := jobs.NewRunner(logr)
	if cfg.Reminders.Enabled {
		for _, cadence := range reminderSvc.Cadences() {
			if err := runner.Register(cadence); err != nil {
				logr.Sugar().Fatalw("failed to register cadence", "cadence", cadence.Name, "error", err)
			}
		}
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	weatherHandler := handler.NewWeatherHandler(weatherSvc)
	schedulerHandler := handler.NewSchedulerHandler(runner)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	authed := auth.Group("", middleware.JWT(authSvc))
	authed.GET("/me", authHandler.Me)
	authed.PATCH("/me/notifications", authHandler.UpdateNotificationPrefs)
	authed.PUT("/me/push-token", authHandler.SetPushToken)

	events := api.Group("/events", middleware.JWT(authSvc))
	if cfg.HTTPCache.Enabled {
		events.Use(middleware.ResponseCache(cacheRepo, metrics, logr, cfg.HTTPCache.TTL))
	}
	events.POST("", eventHandler.Create)
	events.GET("", eventHandler.List)
	events.GET("/:id", eventHandler.Get)
	events.PATCH("/:id", eventHandler.Update)
	events.DELETE("/:id", eventHandler.Cancel)
	events.POST("/:id/join", eventHandler.Join)
	events.DELETE("/:id/join", eventHandler.Leave)
	events.GET("/:id/roster/export", eventHandler.ExportRoster)
	if cfg.Weather.Enabled {
		events.GET("/:id/weather", weatherHandler.ForEvent)
	}

	api.GET("/scheduler/status", middleware.JWT(authSvc), schedulerHandler.Status)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reminders.Enabled {
		runner.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	runner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
