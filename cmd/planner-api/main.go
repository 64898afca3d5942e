package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-planner/api/swagger"
	"github.com/noah-isme/student-planner/internal/handler"
	internalmiddleware "github.com/noah-isme/student-planner/internal/middleware"
	"github.com/noah-isme/student-planner/internal/repository"
	"github.com/noah-isme/student-planner/internal/schedule"
	"github.com/noah-isme/student-planner/internal/service"
	"github.com/noah-isme/student-planner/pkg/cache"
	"github.com/noah-isme/student-planner/pkg/config"
	"github.com/noah-isme/student-planner/pkg/database"
	"github.com/noah-isme/student-planner/pkg/jobs"
	"github.com/noah-isme/student-planner/pkg/kvstore"
	"github.com/noah-isme/student-planner/pkg/logger"
	corsmiddleware "github.com/noah-isme/student-planner/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/student-planner/pkg/middleware/requestid"
)

// @title Student Planner API
// @version 0.1.0
// @description Recurring class schedule, course notes and personal activities
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

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	store, closer, err := openStore(cfg)
	if err != nil {
		logr.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer closer.Close() //nolint:errcheck
	if metricsSvc != nil {
		store = kvstore.Instrument(store, metricsSvc, cfg.Storage.Driver)
	}
	store = kvstore.WithTimeout(store, cfg.Storage.OpTimeout)

	template, err := schedule.LoadTemplateFile(cfg.Schedule.TemplateFile)
	if err != nil {
		logr.Fatal("failed to load default template", zap.Error(err))
	}
	location := time.Local
	if cfg.Schedule.ICSTimezone != "" {
		location, err = time.LoadLocation(cfg.Schedule.ICSTimezone)
		if err != nil {
			logr.Fatal("invalid calendar timezone", zap.String("timezone", cfg.Schedule.ICSTimezone), zap.Error(err))
		}
	}

	repo := repository.NewScheduleRepository(store)
	opts := []service.ScheduleServiceOption{}
	if metricsSvc != nil {
		opts = append(opts, service.WithScheduleMetrics(metricsSvc))
	}
	scheduleSvc := service.NewScheduleService(repo, nil, logr, service.ScheduleServiceConfig{
		PreserveDetails:    cfg.Schedule.PreserveDetails,
		PersistReconciled:  cfg.Schedule.PersistReconciled,
		AutoCompleteMissed: cfg.Schedule.AutoCompleteMissed,
		DefaultTemplate:    &template,
		Location:           location,
		CSVSeparator:       cfg.Schedule.CSVSeparator,
	}, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	overview, err := scheduleSvc.Load(ctx)
	if err != nil {
		logr.Fatal("failed to load schedule", zap.Error(err))
	}
	logr.Info("schedule loaded",
		zap.Bool("configured", overview.IsConfigured),
		zap.Int("courses", overview.CourseCount),
		zap.String("storage", cfg.Storage.Driver),
	)

	if cfg.Schedule.RefreshInterval > 0 {
		refresher := jobs.NewQueue("schedule-refresh", func(ctx context.Context, _ jobs.Task) error {
			_, err := scheduleSvc.ReconcileStatuses(ctx)
			return err
		}, jobs.QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 5 * time.Second, Logger: logr})
		refresher.Start(ctx)
		refresher.Every(ctx, cfg.Schedule.RefreshInterval, "reconcile")
		defer refresher.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(internalmiddleware.Metrics(metricsSvc))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, func(ctx context.Context) error {
		_, err := repo.IsConfigured(ctx)
		return err
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	handler.NewScheduleHandler(scheduleSvc).Register(api)
	handler.NewActivityHandler(scheduleSvc).Register(api)
	handler.NewExportHandler(scheduleSvc).Register(api)

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

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the key/value backend named by STORAGE_DRIVER.
func openStore(cfg *config.Config) (kvstore.Store, io.Closer, error) {
	switch cfg.Storage.Driver {
	case "", config.StorageMemory:
		return kvstore.NewMemoryStore(), nopCloser{}, nil
	case config.StorageFile:
		store, err := kvstore.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	case config.StorageRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return kvstore.NewRedisStore(client), client, nil
	case config.StoragePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		store := kvstore.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
