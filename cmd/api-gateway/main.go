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

	_ "github.com/noah-isme/counseling-api/api/swagger"
	"github.com/noah-isme/counseling-api/internal/handler"
	"github.com/noah-isme/counseling-api/internal/middleware"
	"github.com/noah-isme/counseling-api/internal/repository"
	"github.com/noah-isme/counseling-api/internal/service"
	"github.com/noah-isme/counseling-api/pkg/cache"
	"github.com/noah-isme/counseling-api/pkg/config"
	"github.com/noah-isme/counseling-api/pkg/database"
	"github.com/noah-isme/counseling-api/pkg/jobs"
	"github.com/noah-isme/counseling-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/counseling-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/counseling-api/pkg/middleware/requestid"
)

// @title Counseling Coordination API
// @version 1.0.0
// @description Volunteer counseling coordination: approvals, assignments, sessions, summaries and dashboards
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migrations.RunOnStart {
		if err := migrateUp(ctx, cfg); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, token revocation and content cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	concernRepo := repository.NewConcernRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	knowledgeRepo := repository.NewKnowledgeRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, 5*time.Minute, logr, cacheRepo.Enabled())
	revocation := service.NewTokenRevocation(cacheSvc, cfg.JWT.Expiration)

	auditSvc := service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	}, logr)
	auditSvc.Start(context.Background())

	authSvc := service.NewAuthService(userRepo, revocation, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	approvalSvc := service.NewApprovalService(userRepo, revocation, auditSvc, metrics, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, childRepo, userRepo, auditSvc, metrics, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, childRepo, assignmentRepo, metrics, validate, logr, service.SessionConfig{
		EndRequiresOwner: cfg.Sessions.EndRequiresOwner,
	})
	summarySvc := service.NewSummaryService(summaryRepo, sessionRepo, assignmentRepo, metrics, validate, logr, service.SummaryConfig{
		FollowUpDays: cfg.Sessions.FollowUpDays,
	})
	childSvc := service.NewChildService(childRepo, assignmentRepo, auditSvc, validate, logr)
	concernSvc := service.NewConcernService(concernRepo, childRepo, assignmentRepo, auditSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, metrics, logr, service.DashboardConfig{
		TrendWeeks:    cfg.Dashboard.TrendWeeks,
		ExportEnabled: cfg.Dashboard.ExportEnabled,
	})
	volunteerSvc := service.NewVolunteerService(userRepo)
	knowledgeSvc := service.NewKnowledgeService(knowledgeRepo, cacheSvc, 5*time.Minute, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:       handler.NewAuthHandler(authSvc),
		approvals:  handler.NewApprovalHandler(approvalSvc),
		assign:     handler.NewAssignmentHandler(assignmentSvc),
		sessions:   handler.NewSessionHandler(sessionSvc, summarySvc),
		children:   handler.NewChildHandler(childSvc),
		concerns:   handler.NewConcernHandler(concernSvc),
		dashboard:  handler.NewDashboardHandler(dashboardSvc),
		volunteers: handler.NewVolunteerHandler(volunteerSvc),
		knowledge:  handler.NewKnowledgeHandler(knowledgeSvc),
		validator:  authSvc,
		audit:      auditSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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
	auditSvc.Stop()
}

// migrateUp opens a dedicated connection because closing the migrator closes its database.
func migrateUp(ctx context.Context, cfg *config.Config) error {
	conn, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	migrator, err := database.NewMigrator(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer migrator.Close() //nolint:errcheck
	return migrator.Up()
}
