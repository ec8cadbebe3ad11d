package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/zlog"
	"github.com/yokitheyo/imageclassifier/internal/config"
	infradatabase "github.com/yokitheyo/imageclassifier/internal/infrastructure/database"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/inference"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/kafka"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/labels"
	"github.com/yokitheyo/imageclassifier/internal/infrastructure/storage"
	"github.com/yokitheyo/imageclassifier/internal/repository/postgres"
	"github.com/yokitheyo/imageclassifier/internal/usecase"
	"github.com/yokitheyo/imageclassifier/internal/worker"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Image Classifier Worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := "config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "/app/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Logging.Apply(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("invalid log level")
	}

	database, err := infradatabase.Connect(ctx, &cfg.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database after all retries")
	}
	defer infradatabase.Close(database)

	zlog.Logger.Info().Msg("Running database migrations...")
	if err := infradatabase.RunMigrations(database, cfg.Migrations.Path); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Migrations warning (might be already applied)")
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
	defer inference.ShutdownRuntime()
	defer registry.Close()

	if cfg.Models.Prewarm {
		if err := registry.Prewarm(ctx); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("Failed to prewarm models")
		}
	}

	resolver := usecase.NewImageResolver(storageService)
	classifier := usecase.NewClassifier(resolver, registry, labelTable, storageService, cfg.Dataset.Extensions)

	jobRepo := postgres.NewJobRepository(database, postgres.DefaultStrategy)
	jobProcessor := usecase.NewJobProcessor(jobRepo, classifier.Classify)
	jobWorker := worker.NewJobWorker(jobProcessor)

	kafkaConsumer, err := kafka.NewConsumer(&cfg.Kafka, jobWorker.HandleJob)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka consumer")
	}
	defer kafkaConsumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := kafkaConsumer.Start(ctx); err != nil {
			zlog.Logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		zlog.Logger.Warn().Msg("consumer did not stop in time")
	}

	zlog.Logger.Info().Msg("Worker shutdown complete")
}
