package main

import (
	"context"
	"errors"
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

	_ "github.com/meetsync/meetsync-api/api/swagger"
	"github.com/meetsync/meetsync-api/internal/handler"
	"github.com/meetsync/meetsync-api/internal/middleware"
	"github.com/meetsync/meetsync-api/internal/repository"
	"github.com/meetsync/meetsync-api/internal/service"
	"github.com/meetsync/meetsync-api/pkg/cache"
	"github.com/meetsync/meetsync-api/pkg/config"
	"github.com/meetsync/meetsync-api/pkg/database"
	"github.com/meetsync/meetsync-api/pkg/logger"
	"github.com/meetsync/meetsync-api/pkg/meet"
	corsmiddleware "github.com/meetsync/meetsync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/meetsync/meetsync-api/pkg/middleware/requestid"
)

// @title MeetSync API
// @version 1.0.0
// @description Scheduling backend: public booking pages, availability resolution and meeting management
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	userRepo := repository.NewUserRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "meetsync-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, cacheRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, calendarRepo, cacheRepo, validate, logr)

	var links *meet.LinkGenerator
	if cfg.Meet.Enabled {
		links = meet.NewLinkGenerator()
	}
	bookingSvc := service.NewBookingService(calendarRepo, availabilitySvc, meetingRepo, cacheRepo, userRepo, links, validate, logr, service.BookingConfig{
		HorizonDays: cfg.Booking.HorizonDays,
		MaxDates:    cfg.Booking.MaxDates,
		CacheTTL:    cfg.Booking.CacheTTL,
		MeetLinks:   cfg.Meet.Enabled,
	}).WithMetrics(metricsSvc)

	meetingSvc := service.NewMeetingService(meetingRepo, calendarRepo, logr)
	feedSvc := service.NewFeedService(calendarRepo, meetingRepo, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportSvc = service.NewExportService(meetingSvc, logr)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, calendarSvc, feedSvc)
	meetingHandler := handler.NewMeetingHandler(meetingSvc, bookingSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	public := api.Group("/public/calendars/:id")
	{
		public.GET("", bookingHandler.GetCalendar)
		public.GET("/dates", bookingHandler.ListDates)
		public.GET("/slots", bookingHandler.ListSlots)
		public.POST("/bookings", bookingHandler.Submit)
		public.GET("/feed.ics", bookingHandler.Feed)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	private := api.Group("", middleware.JWT(authSvc))
	{
		private.GET("/users/me", userHandler.Me)
		private.PATCH("/users/me", userHandler.UpdateMe)

		private.POST("/calendars", calendarHandler.Create)
		private.GET("/calendars", calendarHandler.List)
		private.GET("/calendars/:id", calendarHandler.Get)
		private.PUT("/calendars/:id", calendarHandler.Update)
		private.DELETE("/calendars/:id", calendarHandler.Delete)

		private.GET("/calendars/:id/availabilities", availabilityHandler.List)
		private.POST("/calendars/:id/availabilities", availabilityHandler.Create)
		private.PUT("/availabilities/:id", availabilityHandler.Update)
		private.DELETE("/availabilities/:id", availabilityHandler.Delete)

		private.GET("/meetings", meetingHandler.List)
		private.GET("/meetings/export", meetingHandler.Export)
		private.GET("/meetings/:id", meetingHandler.Get)
		private.PATCH("/meetings/:id/status", meetingHandler.UpdateStatus)
		private.DELETE("/meetings/:id", meetingHandler.Delete)
		private.GET("/calendars/:id/meetings", meetingHandler.ListByCalendar)
	}

	var sweeper *service.MaintenanceService
	if cfg.Sweeper.Enabled {
		sweeper = service.NewMaintenanceService(userRepo, meetingRepo, logr, service.MaintenanceConfig{
			Schedule:      cfg.Sweeper.Schedule,
			PendingMaxAge: cfg.Sweeper.PendingMaxAge,
			CancelStale:   cfg.Sweeper.CancelStale,
			WorkerRetries: cfg.Sweeper.WorkerRetries,
		})
		if err := sweeper.Start(ctx); err != nil {
			logr.Sugar().Fatalw("failed to start maintenance sweeper", "error", err)
		}
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
