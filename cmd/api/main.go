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
	"go.uber.org/zap"

	_ "github.com/medora-hq/roster-api/api/swagger"
	"github.com/medora-hq/roster-api/internal/handler"
	"github.com/medora-hq/roster-api/internal/middleware"
	"github.com/medora-hq/roster-api/internal/models"
	"github.com/medora-hq/roster-api/internal/repository"
	"github.com/medora-hq/roster-api/internal/service"
	"github.com/medora-hq/roster-api/pkg/cache"
	"github.com/medora-hq/roster-api/pkg/config"
	"github.com/medora-hq/roster-api/pkg/database"
	"github.com/medora-hq/roster-api/pkg/logger"
	corsmiddleware "github.com/medora-hq/roster-api/pkg/middleware/cors"
	reqidmiddleware "github.com/medora-hq/roster-api/pkg/middleware/requestid"
	"github.com/medora-hq/roster-api/pkg/storage"
)

// @title Roster API
// @version 1.0.0
// @description Monthly duty roster service for emergency medical centers
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
		redisClient = nil
	}

	exportStorage, err := storage.NewLocalStorage(cfg.Reports.ExportDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	centerRepo := repository.NewCenterRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	coverageRepo := repository.NewCoverageRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	auditSvc := service.NewAuditService(auditRepo, logr)
	reportCache := service.NewInstrumentedCache(cacheRepo, metricsSvc)
	notifySvc := service.NewNotificationService(userRepo, nil, cfg.Notify, logr)

	authSvc := service.NewAuthService(userRepo, auditSvc, validate, cfg.JWT, "roster-api", logr)
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	doctorSvc := service.NewDoctorService(doctorRepo, userRepo, auditSvc, validate, logr)
	centerSvc := service.NewCenterService(centerRepo, auditSvc, validate, logr)
	shiftSvc := service.NewShiftService(shiftRepo, auditSvc, validate, logr)
	coverageSvc := service.NewCoverageService(coverageRepo, centerRepo, shiftRepo, auditSvc, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, doctorRepo, auditSvc, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, auditSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, auditSvc, cacheRepo, notifySvc, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, scheduleRepo, doctorRepo, centerRepo, shiftRepo, auditSvc, cacheRepo, validate, logr)
	validationSvc := service.NewValidationService(scheduleRepo, assignmentRepo, doctorRepo, centerRepo, shiftRepo, leaveRepo, coverageRepo, logr)
	builderSvc := service.NewBuilderService(scheduleRepo, assignmentRepo, doctorRepo, centerRepo, coverageRepo, leaveRepo, auditSvc, cacheRepo, metricsSvc, cfg.Builder, logr)
	fairnessSvc := service.NewFairnessService(scheduleRepo, assignmentRepo, doctorRepo, holidayRepo, reportCache, cfg.Fairness, logr)
	statisticsSvc := service.NewStatisticsService(scheduleRepo, assignmentRepo, doctorRepo, coverageRepo, reportCache, cfg.Reports.CacheTTL, logr)
	exportSvc := service.NewExportService(scheduleRepo, assignmentRepo, centerRepo, nil, nil, exportStorage, auditSvc, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifySvc.Start(ctx)
	defer notifySvc.Stop()

	go cleanupExports(ctx, exportStorage, cfg.Reports.ExportTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	doctorHandler := handler.NewDoctorHandler(doctorSvc)
	centerHandler := handler.NewCenterHandler(centerSvc)
	shiftHandler := handler.NewShiftHandler(shiftSvc)
	coverageHandler := handler.NewCoverageHandler(coverageSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc, validationSvc, builderSvc, fairnessSvc, statisticsSvc, exportSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.POST("/auth/change-password", authHandler.ChangePassword)
	authed.GET("/auth/me", authHandler.Me)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeamLead)
	admin := middleware.RequireRoles(models.RoleAdmin)

	authed.GET("/users", admin, userHandler.List)
	authed.GET("/users/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
	authed.POST("/users", admin, userHandler.Create)
	authed.PUT("/users/:id", admin, userHandler.Update)
	authed.DELETE("/users/:id", admin, userHandler.Delete)

	authed.GET("/doctors", doctorHandler.List)
	authed.GET("/doctors/:id", doctorHandler.Get)
	authed.POST("/doctors", staff, doctorHandler.Create)
	authed.PUT("/doctors/:id", staff, doctorHandler.Update)
	authed.DELETE("/doctors/:id", staff, doctorHandler.Delete)

	authed.GET("/centers", centerHandler.List)
	authed.GET("/centers/:id", centerHandler.Get)
	authed.POST("/centers", staff, centerHandler.Create)
	authed.PUT("/centers/:id", staff, centerHandler.Update)
	authed.DELETE("/centers/:id", staff, centerHandler.Delete)

	authed.GET("/shifts", shiftHandler.List)
	authed.GET("/shifts/:id", shiftHandler.Get)
	authed.POST("/shifts", staff, shiftHandler.Create)
	authed.PUT("/shifts/:id", staff, shiftHandler.Update)
	authed.DELETE("/shifts/:id", staff, shiftHandler.Delete)

	authed.GET("/coverage", coverageHandler.List)
	authed.GET("/coverage/:id", coverageHandler.Get)
	authed.POST("/coverage", staff, coverageHandler.Create)
	authed.PUT("/coverage/:id", staff, coverageHandler.Update)
	authed.DELETE("/coverage/:id", staff, coverageHandler.Delete)

	authed.GET("/leaves", leaveHandler.List)
	authed.GET("/leaves/:id", leaveHandler.Get)
	authed.POST("/leaves", leaveHandler.Create)
	authed.PUT("/leaves/:id/review", staff, leaveHandler.Review)
	authed.POST("/leaves/:id/cancel", leaveHandler.Cancel)
	authed.DELETE("/leaves/:id", staff, leaveHandler.Delete)

	authed.GET("/holidays", holidayHandler.List)
	authed.POST("/holidays", staff, holidayHandler.Create)
	authed.DELETE("/holidays/:id", staff, holidayHandler.Delete)

	authed.GET("/schedules", scheduleHandler.List)
	authed.GET("/schedules/:id", scheduleHandler.Get)
	authed.GET("/schedules/by-month/:year/:month", scheduleHandler.GetByMonth)
	authed.POST("/schedules", staff, scheduleHandler.Create)
	authed.PUT("/schedules/:id", staff, scheduleHandler.Update)
	authed.DELETE("/schedules/:id", staff, scheduleHandler.Delete)
	authed.POST("/schedules/:id/publish", staff, scheduleHandler.Publish)
	authed.POST("/schedules/:id/unpublish", staff, scheduleHandler.Unpublish)
	authed.POST("/schedules/:id/archive", staff, scheduleHandler.Archive)
	authed.POST("/schedules/:id/unarchive", staff, scheduleHandler.Unarchive)
	authed.POST("/schedules/:id/validate", staff, scheduleHandler.Validate)
	authed.POST("/schedules/:id/validate-assignment", staff, scheduleHandler.ValidateAssignment)
	authed.POST("/schedules/:id/build", staff, scheduleHandler.Build)
	authed.GET("/schedules/:id/statistics", scheduleHandler.Statistics)
	authed.GET("/schedules/:id/fairness", scheduleHandler.Fairness)
	authed.GET("/schedules/:id/export/assignments", scheduleHandler.ExportAssignments)
	authed.GET("/schedules/:id/export/doctor-hours", scheduleHandler.ExportDoctorHours)
	authed.GET("/schedules/:id/export/coverage-matrix", scheduleHandler.ExportCoverageMatrix)

	authed.GET("/assignments", assignmentHandler.List)
	authed.GET("/assignments/:id", assignmentHandler.Get)
	authed.POST("/assignments", staff, assignmentHandler.Create)
	authed.PUT("/assignments/:id", staff, assignmentHandler.Update)
	authed.DELETE("/assignments/:id", staff, assignmentHandler.Delete)

	authed.GET("/audit", admin, auditHandler.List)
	authed.GET("/metrics/snapshot", admin, metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
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

// cleanupExports periodically removes archived export files past their TTL.
func cleanupExports(ctx context.Context, store *storage.LocalStorage, ttl time.Duration, logr *zap.Logger) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(ttl)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
