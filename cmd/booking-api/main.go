package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tutor-booking-api/api/swagger"
	"github.com/noah-isme/tutor-booking-api/internal/handler"
	internalmiddleware "github.com/noah-isme/tutor-booking-api/internal/middleware"
	"github.com/noah-isme/tutor-booking-api/internal/models"
	"github.com/noah-isme/tutor-booking-api/internal/repository"
	"github.com/noah-isme/tutor-booking-api/internal/service"
	"github.com/noah-isme/tutor-booking-api/internal/timezone"
	"github.com/noah-isme/tutor-booking-api/pkg/cache"
	"github.com/noah-isme/tutor-booking-api/pkg/config"
	"github.com/noah-isme/tutor-booking-api/pkg/database"
	"github.com/noah-isme/tutor-booking-api/pkg/export"
	"github.com/noah-isme/tutor-booking-api/pkg/jobs"
	"github.com/noah-isme/tutor-booking-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tutor-booking-api/pkg/middleware/requestid"
)

// @title Tutor Booking API
// @version 1.0.0
// @description Trial-session availability search and booking across client timezones.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	registry, err := timezone.NewRegistry(cfg.Booking.OperationsTimezone, timezone.DefaultDescriptors...)
	if err != nil {
		logr.Fatal("invalid timezone registry", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	checks := map[string]handler.Pinger{"database": db}

	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, using in-process search cache", zap.Error(err))
		cacheRepo = repository.NewLocalCacheRepository(cfg.Search.LocalCacheSize, cfg.Search.CacheTTL)
	case redisClient != nil:
		defer redisClient.Close() //nolint:errcheck
		redisRepo := repository.NewCacheRepository(redisClient)
		cacheRepo = redisRepo
		checks["redis"] = handler.PingFunc(redisRepo.Ping)
	default:
		cacheRepo = repository.NewLocalCacheRepository(cfg.Search.LocalCacheSize, cfg.Search.CacheTTL)
	}
	searchCache := service.NewSearchCache(cacheRepo, metricsSvc, cfg.Search.CacheTTL, logr)

	validate := validator.New()

	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationSvc := service.NewNotificationService(notificationRepo, registry, logr, jobs.QueueConfig{
		Workers:      cfg.Notifications.Workers,
		BufferSize:   cfg.Notifications.BufferSize,
		MaxRetries:   cfg.Notifications.Retries,
		DrainTimeout: cfg.Notifications.DrainTimeout,
	})
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})
	searchSvc := service.NewAvailabilitySearchService(availabilityRepo, registry, searchCache, metricsSvc, logr)
	exportSvc := service.NewExportService(searchSvc, registry, logr, export.NewCSVExporter(), export.NewPDFExporter())
	bookingSvc := service.NewBookingService(bookingRepo, teacherRepo, registry, searchCache, notificationSvc, metricsSvc, validate, logr, service.BookingConfig{
		LockSameDay: cfg.Booking.LockSameDay,
	})
	teacherAvailabilitySvc := service.NewTeacherAvailabilityService(availabilityRepo, teacherRepo, registry, searchCache, validate, logr)

	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	availabilityHandler := handler.NewAvailabilityHandler(searchSvc, exportSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	teacherAvailabilityHandler := handler.NewTeacherAvailabilityHandler(teacherAvailabilitySvc)
	timezoneHandler := handler.NewTimezoneHandler(registry)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limiter := internalmiddleware.NewRateLimiter(cfg.Booking.RatePerMinute, logr)
	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSales, models.RoleSupervisor)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc))
	{
		api.GET("/timezones", timezoneHandler.List)

		availability := api.Group("/availability", staff)
		availability.GET("/slots", availabilityHandler.Search)
		availability.GET("/slots/export", availabilityHandler.Export)

		bookings := api.Group("/bookings", staff, limiter.Middleware())
		bookings.POST("/trial", bookingHandler.ReserveTrial)

		teachers := api.Group("/teachers/:id/availability")
		teachers.GET("", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleSupervisor), internalmiddleware.Self), teacherAvailabilityHandler.List)
		teachers.PUT("", internalmiddleware.RBAC(string(models.RoleAdmin), internalmiddleware.Self), teacherAvailabilityHandler.Open)
		teachers.DELETE("", internalmiddleware.RBAC(string(models.RoleAdmin), internalmiddleware.Self), teacherAvailabilityHandler.Close)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "operations_timezone", registry.Operations().ID)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
