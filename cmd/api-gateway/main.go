package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/schedulease-api/api/swagger"
	"github.com/noah-isme/schedulease-api/internal/handler"
	internalmiddleware "github.com/noah-isme/schedulease-api/internal/middleware"
	"github.com/noah-isme/schedulease-api/internal/repository"
	"github.com/noah-isme/schedulease-api/internal/service"
	"github.com/noah-isme/schedulease-api/pkg/cache"
	"github.com/noah-isme/schedulease-api/pkg/config"
	"github.com/noah-isme/schedulease-api/pkg/database"
	"github.com/noah-isme/schedulease-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/schedulease-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/schedulease-api/pkg/middleware/requestid"
)

const shutdownTimeout = 15 * time.Second

// @title SchedulEase API
// @version 1.0.0
// @description Generates conflict-free course schedules from a section catalog and exports them as calendars.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()
	readiness := map[string]handler.Pinger{}

	var (
		sections service.SectionCatalog
		courses  service.CourseLister
	)
	switch cfg.Catalog.Source {
	case config.CatalogSourceFile:
		fileCatalog, err := repository.NewFileCatalogRepository(cfg.Catalog.File)
		if err != nil {
			logr.Fatal("failed to load catalog file", zap.String("path", cfg.Catalog.File), zap.Error(err))
		}
		sections, courses = fileCatalog, fileCatalog
		logr.Info("catalog loaded from file", zap.String("path", cfg.Catalog.File), zap.Int("courses", len(fileCatalog.Courses())))
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer closeDB(db, logr)
		sections, courses = repository.NewSectionRepository(db), repository.NewCourseRepository(db)
		readiness["database"] = handler.PingFunc(db.PingContext)
	}

	var cacheRepo service.CacheRepository
	if cfg.Catalog.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
			readiness["cache"] = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Catalog.CacheTTL, logr, cacheRepo != nil)

	catalogSvc := service.NewCatalogService(sections, courses, cacheSvc, metricsSvc, cfg.Catalog.CacheTTL, nil, logr)
	generatorSvc := service.NewScheduleGeneratorService(catalogSvc, cacheSvc, metricsSvc, nil, logr, service.ScheduleGeneratorConfig{
		MaxResults:        cfg.Generator.MaxResults,
		LookupConcurrency: cfg.Generator.LookupConcurrency,
		ResultCacheTTL:    cfg.Generator.ResultCacheTTL,
	})
	exportSvc, err := service.NewScheduleExportService(metricsSvc, nil, logr, service.ScheduleExportConfig{
		Timezone:        cfg.Calendar.Timezone,
		RecurrenceWeeks: cfg.Calendar.RecurrenceWeeks,
		DefaultName:     cfg.Export.DefaultName,
	})
	if err != nil {
		logr.Fatal("failed to configure exports", zap.Error(err))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)
	courseHandler := handler.NewCourseHandler(catalogSvc)
	generatorHandler := handler.NewScheduleGeneratorHandler(generatorSvc)
	exportHandler := handler.NewScheduleExportHandler(exportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(apiPrefix(cfg.APIPrefix))
	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id/sections", courseHandler.Sections)
	api.POST("/schedules/generate", generatorHandler.Generate)
	api.POST("/schedules/export", exportHandler.Export)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "catalog", cfg.Catalog.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func apiPrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return prefix
}

func closeDB(db *sqlx.DB, logr *zap.Logger) {
	if err := db.Close(); err != nil {
		logr.Warn("closing postgres", zap.Error(err))
	}
}
