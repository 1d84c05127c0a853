package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/opencampus/registrar-api/api/swagger"
	"github.com/opencampus/registrar-api/internal/handler"
	"github.com/opencampus/registrar-api/internal/middleware"
	"github.com/opencampus/registrar-api/internal/models"
	"github.com/opencampus/registrar-api/internal/repository"
	"github.com/opencampus/registrar-api/internal/service"
	"github.com/opencampus/registrar-api/pkg/cache"
	"github.com/opencampus/registrar-api/pkg/config"
	"github.com/opencampus/registrar-api/pkg/database"
	"github.com/opencampus/registrar-api/pkg/export"
	"github.com/opencampus/registrar-api/pkg/logger"
	corsmiddleware "github.com/opencampus/registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencampus/registrar-api/pkg/middleware/requestid"
)

// @title Campus Registrar API
// @version 0.1.0
// @description Student, course, enrollment and grading service
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
	defer db.Close() //nolint:errcheck

	// Redis is optional: without it the statistics endpoints hit the
	// database on every call.
	var redisClient *redis.Client
	if cfg.Stats.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheSvc, validate, logr)
	scoreSvc := service.NewScoreService(enrollmentRepo, cacheSvc, validate, logr)
	transcriptSvc := service.NewTranscriptService(enrollmentRepo, studentRepo,
		export.NewCSVExporter(), export.NewPDFExporter(), cfg.Export.PDFTitle, logr)
	statsSvc := service.NewStatsService(statsRepo, cacheSvc, metricsSvc, cfg.Stats.CacheTTL, cfg.Stats.PopularTopN, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	scoreHandler := handler.NewScoreHandler(scoreSvc)
	transcriptHandler := handler.NewTranscriptHandler(transcriptSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
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

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.PUT("/password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	students := protected.Group("/students")
	{
		students.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), studentHandler.List)
		students.POST("", middleware.RequireRoles(models.RoleAdmin), studentHandler.Create)
		students.GET("/:id", middleware.RBAC("ADMIN", "TEACHER", "SELF"), studentHandler.Get)
		students.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), studentHandler.Update)
		students.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), studentHandler.Delete)
		students.GET("/:id/transcript", middleware.RBAC("ADMIN", "TEACHER", "SELF"), transcriptHandler.Transcript)
		students.GET("/:id/transcript/export", middleware.RBAC("ADMIN", "TEACHER", "SELF"), transcriptHandler.Export)
		students.GET("/:id/gpa", middleware.RBAC("ADMIN", "TEACHER", "SELF"), transcriptHandler.GPA)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", courseHandler.List)
		courses.GET("/available", courseHandler.Available)
		courses.POST("", middleware.RequireRoles(models.RoleAdmin), courseHandler.Create)
		courses.GET("/:id", courseHandler.Get)
		courses.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Update)
		courses.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), courseHandler.Delete)
		courses.GET("/:id/roster", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), enrollmentHandler.Roster)
		courses.GET("/:id/score-distribution", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), statsHandler.CourseDistribution)
	}

	enrollments := protected.Group("/enrollments")
	{
		enrollments.GET("", enrollmentHandler.List)
		enrollments.POST("", enrollmentHandler.Create)
		enrollments.POST("/drop", enrollmentHandler.Drop)
	}

	protected.PUT("/scores", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), scoreHandler.SetScore)

	stats := protected.Group("/stats")
	stats.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	{
		stats.GET("/students", statsHandler.Students)
		stats.GET("/courses", statsHandler.Courses)
		stats.GET("/enrollments", statsHandler.Enrollments)
		stats.GET("/scores", statsHandler.Scores)
		stats.GET("/system", statsHandler.System)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
