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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/marketing-calendar-api/api/swagger"
	"github.com/noah-isme/marketing-calendar-api/internal/handler"
	internalmiddleware "github.com/noah-isme/marketing-calendar-api/internal/middleware"
	"github.com/noah-isme/marketing-calendar-api/internal/repository"
	"github.com/noah-isme/marketing-calendar-api/internal/service"
	"github.com/noah-isme/marketing-calendar-api/pkg/cache"
	"github.com/noah-isme/marketing-calendar-api/pkg/config"
	"github.com/noah-isme/marketing-calendar-api/pkg/database"
	"github.com/noah-isme/marketing-calendar-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/marketing-calendar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/marketing-calendar-api/pkg/middleware/requestid"
)

// @title Marketing Calendar API
// @version 1.0.0
// @description Campaign scheduling, holiday catalog and reminder timeline
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	campaignRepo := repository.NewCampaignRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	calendarEventRepo := repository.NewCalendarEventRepository(db)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled && redisClient != nil)
	calendarEvents := service.NewCalendarEventService(calendarEventRepo, cacheSvc, cfg.Calendar.CacheTTL, logr)

	normalizer := service.NewEventNormalizer(cfg.Calendar.Location)
	composer := service.NewTimelineComposer(service.ComposerConfig{
		SlotHeight:   cfg.Calendar.SlotHeight,
		RowHeight:    cfg.Calendar.RowHeight,
		MonthVisible: cfg.Calendar.MonthVisible,
		Location:     cfg.Calendar.Location,
	})

	reminders := service.NewReminderManager(reminderRepo, calendarEvents, metricsSvc, logr, service.ReminderManagerConfig{
		PollSchedule:  cfg.Reminders.PollSchedule,
		SnoozeMinutes: cfg.Reminders.SnoozeMinutes,
	})

	eventCache := service.NewEventCache()
	scheduling := service.NewSchedulingService(campaignRepo, reminderRepo, eventCache, normalizer, validator.New(), logr, service.SchedulingOptions{
		Tracker:  reminders,
		Calendar: calendarEvents,
		Metrics:  metricsSvc,
	})
	timeline := service.NewTimelineService(service.DefaultHolidayCatalog(), normalizer, composer, eventCache, calendarEvents, metricsSvc, logr, nil)
	exports := service.NewExportService(cfg.Calendar.Location, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := scheduling.Reconcile(ctx); err != nil {
		logr.Warn("initial campaign reconcile failed", zap.Error(err))
	}
	if cfg.Reminders.PollEnabled {
		if err := reminders.Start(ctx); err != nil {
			logr.Fatal("failed to start reminder poll", zap.Error(err))
		}
		defer reminders.Stop()
	}

	calendarHandler := handler.NewCalendarHandler(timeline, calendarEvents, exports)
	campaignHandler := handler.NewCampaignHandler(scheduling)
	reminderHandler := handler.NewReminderHandler(reminders, scheduling)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		calendar := api.Group("/calendar")
		calendar.GET("/timeline", calendarHandler.Timeline)
		calendar.GET("/events", calendarHandler.Events)
		calendar.GET("/export.ics", calendarHandler.ExportICS)
		calendar.GET("/export.csv", calendarHandler.ExportCSV)
		calendar.GET("/export.pdf", calendarHandler.ExportPDF)

		campaigns := api.Group("/campaigns")
		campaigns.GET("", campaignHandler.List)
		campaigns.POST("", campaignHandler.Create)
		campaigns.GET("/:id/form", campaignHandler.Form)
		campaigns.PUT("/:id", campaignHandler.Update)
		campaigns.DELETE("/:id", campaignHandler.Delete)

		reminderRoutes := api.Group("/reminders")
		reminderRoutes.GET("/due", reminderHandler.Due)
		reminderRoutes.POST("", reminderHandler.Create)
		reminderRoutes.POST("/:id/dismiss", reminderHandler.Dismiss)
		reminderRoutes.POST("/:id/snooze", reminderHandler.Snooze)
		reminderRoutes.DELETE("/:id", reminderHandler.Delete)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Calendar.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"postgres": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
