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

	_ "github.com/studybuddy/studybuddy-api/api/swagger"
	"github.com/studybuddy/studybuddy-api/internal/handler"
	"github.com/studybuddy/studybuddy-api/internal/middleware"
	"github.com/studybuddy/studybuddy-api/internal/repository"
	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/pkg/cache"
	"github.com/studybuddy/studybuddy-api/pkg/config"
	"github.com/studybuddy/studybuddy-api/pkg/database"
	"github.com/studybuddy/studybuddy-api/pkg/genai"
	"github.com/studybuddy/studybuddy-api/pkg/logger"
	corsmiddleware "github.com/studybuddy/studybuddy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studybuddy/studybuddy-api/pkg/middleware/requestid"
	"github.com/studybuddy/studybuddy-api/pkg/storage"
)

// @title StudyBuddy API
// @version 1.0.0
// @description Course authoring and AI content generation service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// content reads fall back to postgres when redis is unavailable
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	genaiClient := genai.NewOpenAIClient(cfg.OpenAI, logr)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	contentRepo := repository.NewContentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studybuddy-api",
	})
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	uploadSvc := service.NewUploadService(courseRepo, store, signer, metricsSvc, cfg.Uploads, logr)
	generationSvc := service.NewGenerationService(courseRepo, contentRepo, cacheRepo, genaiClient, metricsSvc, logr)
	contentSvc := service.NewContentService(contentRepo, courseRepo, cacheRepo, metricsSvc, cfg.Content.CacheTTL, logr)
	exportSvc := service.NewExportService(contentRepo, courseRepo, logr)

	uploadCtx, stopUploads := context.WithCancel(context.Background())
	uploadSvc.Start(uploadCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes := handler.Routes{
		Auth:    handler.NewAuthHandler(authSvc),
		Courses: handler.NewCourseHandler(courseSvc, uploadSvc),
		Content: handler.NewContentHandler(generationSvc, contentSvc, courseSvc, exportSvc),
		Files:   handler.NewFileHandler(uploadSvc, store),
	}
	routes.Register(r, cfg.APIPrefix, authSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}

	stopUploads()
	uploadSvc.Stop()

	logr.Sugar().Infow("server stopped")
}
