package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	"github.com/yokitheyo/imageclassifier/internal/domain"
	httpHandler "github.com/yokitheyo/imageclassifier/internal/handler/http"
	"github.com/yokitheyo/imageclassifier/internal/handler/middleware"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/cleanup"
	infradatabase "github.com/yokitheyo/imageclassifier/internal/infrastructure/database"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/inference"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/kafka"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/labels"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/metrics"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/processor"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
	"github.com/yokitheyo/imageclassifier/internal/repository/postgres"
	"github.com/yokitheyo/imageclassifier/internal/usecase"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Classifier API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Logging.Apply(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid log level")
	}

	storageService, err := storage.New(&cfg.Storage)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	labelTable, err := labels.Load(ctx, storageService, cfg.Dataset.LabelsFile)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load class labels")
	}

	registry, err := inference.NewRegistry(cfg.Models.Allowed, inference.NewONNXLoader(&cfg.Models))
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize model registry")
	}
	if cfg.Models.Prewarm {
		if err := registry.Prewarm(ctx); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Failed to prewarm models")
		}
	}

	scheduler := cleanup.NewScheduler(storageService, time.Duration(cfg.Editing.CleanupIntervalMS)*time.Millisecond)

	imageProcessor := processor.NewImageProcessor(&cfg.Editing)
	resolver := usecase.NewImageResolver(storageService)
	store := usecase.NewImageStore(storageService, scheduler)
	enhancer := usecase.NewImageEnhancer(imageProcessor, store)
	editor := usecase.NewEditUsecase(resolver, enhancer, store, time.Duration(cfg.Editing.EditedTTLSec)*time.Second)
	uploader := usecase.NewUploadUsecase(store)
	classifier := usecase.NewClassifier(resolver, registry, labelTable, storageService, cfg.Dataset.Extensions)

	appMetrics, err := metrics.New(registry.Known())
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}
	classifier.SetObserver(appMetrics)

	database, err := infradatabase.Connect(ctx, &cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}

	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Migrations failed")
	}

	kafkaProducer := kafka.NewProducer(&cfg.Kafka)
	var queue domain.QueueService = kafkaProducer

	jobRepo := postgres.NewJobRepository(database, postgres.DefaultStrategy)
	jobs := usecase.NewJobUsecase(jobRepo, queue, registry.Known())

	engine := ginext.New(cfg.Server.GinMode)
	engine.Use(
		middleware.RecoveryMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
		appMetrics.Middleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	handler := httpHandler.NewClassificationHandler(
		classifier,
		editor,
		uploader,
		resolver,
		jobs,
		cfg.Server.MaxUploadSizeMB,
	)
	handler.RegisterRoutes(engine)
	appMetrics.RegisterRoutes(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	// pending edited-image removals are dropped
	scheduler.Stop()

	if err := kafkaProducer.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("closing kafka producer failed")
	}
	if err := registry.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("closing models failed")
	}
	inference.ShutdownRuntime()
	infradatabase.Close(database)

	zlog.Logger.Info().Msg("API shutdown complete")
}
