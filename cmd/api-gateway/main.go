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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-attendance-api/api/swagger"
	"github.com/noah-isme/sma-attendance-api/internal/handler"
	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/cache"
	"github.com/noah-isme/sma-attendance-api/pkg/config"
	"github.com/noah-isme/sma-attendance-api/pkg/database"
	"github.com/noah-isme/sma-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/requestid"
)

// @title SMA Attendance API
// @version 1.0.0
// @description Roster marking sessions and student attendance calendars
// @BasePath /api/v1
// @schemes http https

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient := connectRedis(ctx, cfg, logr)
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Calendar.CacheTTL, logr, cfg.Calendar.CacheEnabled)

	var sessions service.SessionStore = repository.NewMemorySessionRepository()
	if cfg.Marking.RedisStaging && redisClient != nil {
		sessions = repository.NewSessionRepository(redisClient)
	}

	rosterRepo := repository.NewRosterRepository(db)
	marking := service.NewMarkingService(rosterRepo, repository.NewAttendanceRepository(db), sessions, service.MarkingOptions{
		Cache:      cacheSvc,
		Metrics:    metrics,
		Logger:     logr,
		SessionTTL: cfg.Marking.SessionTTL,
	})
	calendar := service.NewCalendarService(rosterRepo, repository.NewAttendanceRepository(db), repository.NewHolidayRepository(db), cacheSvc, metrics, logr)
	tokens := service.NewTokenService(cfg.JWT.Secret)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokens))

	markingHandler := handler.NewMarkingHandler(marking)
	sessionsGroup := api.Group("/marking/sessions", middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin))
	sessionsGroup.POST("", markingHandler.Open)
	sessionsGroup.GET("/:id", markingHandler.Get)
	sessionsGroup.POST("/:id/toggle", markingHandler.Toggle)
	sessionsGroup.POST("/:id/mark-all", markingHandler.MarkAll)
	sessionsGroup.POST("/:id/confirm", markingHandler.Confirm)
	sessionsGroup.POST("/:id/cancel", markingHandler.Cancel)
	sessionsGroup.POST("/:id/submit", markingHandler.Submit)

	calendarHandler := handler.NewCalendarHandler(calendar)
	api.GET("/students/:enrollmentId/calendar", calendarHandler.Month)
	api.GET("/students/:enrollmentId/calendar/export", calendarHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// connectRedis returns nil when neither session staging nor the calendar
// cache needs Redis, or when Redis is unreachable. Callers fall back to the
// in-process session store and an always-missing cache.
func connectRedis(ctx context.Context, cfg *config.Config, logr *zap.Logger) *redis.Client {
	if !cfg.Marking.RedisStaging && !cfg.Calendar.CacheEnabled {
		return nil
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sessions staged in memory and calendar cache disabled", zap.Error(err))
		return nil
	}
	return client
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	return checks
}
