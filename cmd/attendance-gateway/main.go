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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-app/api/swagger"
	"github.com/noah-isme/attendance-app/internal/handler"
	internalmiddleware "github.com/noah-isme/attendance-app/internal/middleware"
	"github.com/noah-isme/attendance-app/internal/models"
	"github.com/noah-isme/attendance-app/internal/repository"
	"github.com/noah-isme/attendance-app/internal/service"
	"github.com/noah-isme/attendance-app/pkg/apiclient"
	"github.com/noah-isme/attendance-app/pkg/config"
	"github.com/noah-isme/attendance-app/pkg/export"
	"github.com/noah-isme/attendance-app/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-app/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-app/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-app/pkg/storage"
)

// @title Attendance Gateway
// @version 1.0.0
// @description Companion API that drives faculty attendance workflows against the attendance backend
// @BasePath /api/v1
// @schemes http
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

	metricsSvc := service.NewMetricsService()
	api := apiclient.New(cfg.Upstream, logr, apiclient.WithObserver(metricsSvc))

	checks := map[string]handler.ReadinessCheck{"backend": api.Ping}
	store, redisClient := openStore(cfg, logr)
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	validate := validator.New()

	authRepo := repository.NewAuthRepository(api)
	subjectRepo := repository.NewSubjectRepository(api)
	attendanceRepo := repository.NewAttendanceRepository(api)
	reportRepo := repository.NewReportRepository(api)

	authSvc := service.NewAuthService(authRepo, store, validate, logr, service.AuthConfig{SessionCacheTTL: cfg.State.SessionCacheTTL}, metricsSvc)
	selectorSvc := service.NewSelectorService(subjectRepo, logr)
	rosterSvc := service.NewRosterService(subjectRepo, attendanceRepo, logr)
	submissionSvc := service.NewSubmissionService(attendanceRepo, metricsSvc, logr)
	workflowSvc := service.NewWorkflowService(selectorSvc, rosterSvc, submissionSvc, metricsSvc, service.WorkflowConfig{
		IdleTTL:      cfg.Workflow.IdleTTL,
		SessionSlots: cfg.Workflow.SessionSlots,
	}, logr)
	reportSvc := service.NewReportService(reportRepo, service.ReportConfig{DefaultWindow: cfg.Reports.DefaultWindow}, logr, export.NewCSVExporter(), export.NewPDFExporter())

	authHandler := handler.NewAuthHandler(authSvc)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := r.Group(cfg.APIPrefix)
	apiGroup.GET("/health", metricsHandler.Health)

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/reset-password", authHandler.ResetPassword)

	secured := apiGroup.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/auth/session", authHandler.Session)
	secured.POST("/auth/logout", authHandler.Logout)
	secured.GET("/profile", authHandler.Profile)

	workflows := secured.Group("/workflows")
	workflows.Use(internalmiddleware.RequireRoles(models.RoleFaculty))
	workflows.POST("", workflowHandler.Create)
	workflows.GET("/:id", workflowHandler.Get)
	workflows.DELETE("/:id", workflowHandler.Delete)
	workflows.PUT("/:id/subject", workflowHandler.SelectSubject)
	workflows.PUT("/:id/batch", workflowHandler.SelectBatch)
	workflows.PUT("/:id/date", workflowHandler.SelectDate)
	workflows.PUT("/:id/sessions", workflowHandler.SetSessions)
	workflows.POST("/:id/sessions/:session/toggle", workflowHandler.ToggleSession)
	workflows.POST("/:id/load", workflowHandler.Load)
	workflows.POST("/:id/students/select-all", workflowHandler.SelectAll)
	workflows.POST("/:id/students/clear", workflowHandler.ClearAll)
	workflows.POST("/:id/students/:studentId/toggle", workflowHandler.ToggleStudent)
	workflows.POST("/:id/contents/:contentId/toggle", workflowHandler.ToggleContent)
	workflows.POST("/:id/points", workflowHandler.AddPoint)
	workflows.PUT("/:id/points/:index", workflowHandler.EditPoint)
	workflows.DELETE("/:id/points/:index", workflowHandler.RemovePoint)
	workflows.POST("/:id/submit", workflowHandler.Submit)

	reports := secured.Group("/reports")
	reports.Use(internalmiddleware.RequireRoles(models.RoleStudent))
	reports.GET("/attendance", reportHandler.AttendanceReport)
	reports.GET("/attendance/export", reportHandler.ExportReport)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go workflowSvc.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "upstream", cfg.Upstream.BaseURL)
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

// openStore picks the session cache backend. Redis failures fall back to an
// in-process store so the gateway still serves requests.
func openStore(cfg *config.Config, logr *zap.Logger) (storage.Store, *redis.Client) {
	if cfg.State.Backend != config.StateBackendRedis {
		return storage.NewMemoryStore(), nil
	}
	client, err := storage.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, using in-memory session cache", zap.Error(err))
		return storage.NewMemoryStore(), nil
	}
	return storage.NewRedisStore(client, cfg.Env), client
}
