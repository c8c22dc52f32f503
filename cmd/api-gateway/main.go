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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/api/swagger"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/handler"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/middleware"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/repository"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/service"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/cache"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/config"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/database"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/logger"
	corsmiddleware "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/middleware/cors"
	reqidmiddleware "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/middleware/requestid"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/storage"
)

// @title I'Tikaf Management System API
// @version 1.0.0
// @description Backend for mosque activity, participation and resource management.
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	// repositories
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsService := service.NewMetricsService()
	cacheService := service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, redisClient != nil)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "itikaf-backend",
	})
	userService := service.NewUserService(userRepo, nil, logr)
	activityService := service.NewActivityService(activityRepo, userRepo, cfg.Schedule.DaysAhead, nil, logr)
	participantService := service.NewParticipantService(participantRepo, activityRepo, userRepo, cacheService, cfg.Analytics.StatsTTL, nil, logr)
	resourceService := service.NewResourceService(resourceRepo, activityRepo, nil, logr)
	feedbackService := service.NewFeedbackService(feedbackRepo, activityRepo, participantRepo, nil, logr)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheService, metricsService, cfg.Analytics.CacheTTL, logr)

	var exportService *service.ExportService
	if cfg.Exports.Enabled {
		exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
		if err != nil {
			logr.Sugar().Fatalw("failed to prepare exports directory", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.DownloadTTL)
		exportService = service.NewExportService(participantService, exportStore, signer, service.ExportConfig{
			Workers:   cfg.Exports.Workers,
			RetainFor: cfg.Exports.RetainFor,
		}, logr)
		exportService.Start(ctx)
		defer exportService.Stop()
	}

	// handlers
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	activityHandler := handler.NewActivityHandler(activityService)
	participantHandler := handler.NewParticipantHandler(participantService)
	resourceHandler := handler.NewResourceHandler(resourceService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	jwtAuth := middleware.JWT(authService)
	imamOnly := middleware.RequireRoles(models.RoleImam)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	auth := r.Group("/auth")
	{
		auth.POST("/register/", authHandler.Register)
		auth.POST("/login/", authHandler.Login)
		auth.POST("/refresh/", authHandler.Refresh)
		auth.POST("/logout/", jwtAuth, authHandler.Logout)
		auth.POST("/change-password/", jwtAuth, authHandler.ChangePassword)
		auth.GET("/me/", jwtAuth, authHandler.Me)
	}

	users := r.Group("/users", jwtAuth)
	{
		users.GET("/", imamOnly, userHandler.List)
		users.GET("/:id/", middleware.RBAC(string(models.RoleImam), middleware.SelfRole), userHandler.Get)
		users.PATCH("/update/:id/", middleware.RBAC(string(models.RoleImam), middleware.SelfRole), userHandler.Update)
		users.PATCH("/activate/:id/", imamOnly, userHandler.Activate)
		users.PATCH("/deactivate/:id/", imamOnly, userHandler.Deactivate)
		users.DELETE("/delete/:id/", imamOnly, userHandler.Delete)
	}

	activities := r.Group("/activity/activities")
	{
		activities.GET("/", activityHandler.List)
		activities.GET("/schedule/", activityHandler.Schedule)
		activities.GET("/my-activities/", jwtAuth, activityHandler.ListMine)
		activities.GET("/:id/", activityHandler.Get)
		activities.POST("/create/", jwtAuth, imamOnly, activityHandler.Create)
		activities.PATCH("/update/:id/", jwtAuth, imamOnly, activityHandler.Update)
		activities.DELETE("/delete/:id/", jwtAuth, imamOnly, activityHandler.Delete)
	}

	participants := r.Group("/activity-participants", jwtAuth)
	{
		participants.POST("/create/", participantHandler.Create)
		participants.GET("/all/", participantHandler.List)
		participants.GET("/stats/:activity_id/", participantHandler.Stats)
		participants.GET("/check-participation/:activity_id/", participantHandler.CheckParticipation)
		participants.GET("/participants/:activity_id/", participantHandler.ListByActivity)
		participants.GET("/my-participations/", participantHandler.ListMine)
		participants.PATCH("/update/:id/", participantHandler.Update)
		participants.PATCH("/mark-attended/:id/", participantHandler.MarkAttended)
		participants.POST("/bulk-update-status/",
			middleware.Audit(userRepo, models.AuditActionBulkStatusUpdate, "activity_participants"),
			participantHandler.BulkUpdateStatus)
		participants.DELETE("/delete/:id/", participantHandler.Delete)
		if cfg.Exports.Enabled {
			participants.GET("/export/:activity_id/", participantHandler.Export)
		}
		participants.GET("/:id/", participantHandler.Get)
	}

	if exportService != nil {
		exportHandler := handler.NewExportHandler(exportService)
		exportJobs := r.Group("/activity-participants/export-jobs")
		{
			exportJobs.POST("/", jwtAuth, exportHandler.Create)
			exportJobs.GET("/download/", exportHandler.Download)
			exportJobs.GET("/:id/", jwtAuth, exportHandler.Get)
		}
	}

	resources := r.Group("/resources", jwtAuth)
	{
		resources.POST("/create/", resourceHandler.Create)
		resources.GET("/", resourceHandler.List)
		resources.PATCH("/update/:id/", resourceHandler.Update)
		resources.DELETE("/delete/:id/", resourceHandler.Delete)
		resources.GET("/:id/", resourceHandler.Get)
	}

	feedback := r.Group("/feedback", jwtAuth)
	{
		feedback.POST("/create/", feedbackHandler.Create)
		feedback.GET("/all/", imamOnly, feedbackHandler.List)
		feedback.GET("/activity/:activity_id/", feedbackHandler.ListByActivity)
		feedback.GET("/my-feedback/", feedbackHandler.ListMine)
		feedback.GET("/my-attended-activities/", feedbackHandler.MyAttendedActivities)
		feedback.PATCH("/update/:id/", feedbackHandler.Update)
		feedback.DELETE("/delete/:id/", feedbackHandler.Delete)
		feedback.GET("/:id/", feedbackHandler.Get)
	}

	analytics := r.Group("/analytic", jwtAuth, imamOnly)
	{
		analytics.GET("/users/", analyticsHandler.Users)
		analytics.GET("/activities/", analyticsHandler.Activities)
		analytics.GET("/participations/", analyticsHandler.Participations)
		analytics.GET("/feedbacks/", analyticsHandler.Feedbacks)
		analytics.GET("/resources/", analyticsHandler.Resources)
		analytics.GET("/overview/", analyticsHandler.Overview)
		analytics.GET("/system/", analyticsHandler.SystemMetrics)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
