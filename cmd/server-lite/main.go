// Package main provides the lightweight entry point for the admission
// engine. This version requires no external databases: payer rates and cost
// models are read from JSON files in the data directory, and assessments
// are persisted to SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/api"
	"github.com/snf-admission-engine/internal/audit"
	"github.com/snf-admission-engine/internal/config"
	"github.com/snf-admission-engine/internal/domain"
	"github.com/snf-admission-engine/internal/repository"
	"github.com/snf-admission-engine/internal/service"
	"github.com/snf-admission-engine/pkg/extraction"
)

func main() {
	// Load lightweight configuration from environment variables
	cfg := config.LoadLiteConfig()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"port":     cfg.HTTPPort,
	}).Info("Starting SNF Admission Engine (Lite)")

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// File-backed rate and cost model stores
	rates, err := repository.NewFileRateStore(filepath.Join(cfg.DataDir, "rates.json"), logger)
	if err != nil {
		log.Fatalf("Failed to load rates file: %v", err)
	}
	cachedRates, err := repository.NewCachedRateStore(rates, cfg.CacheMaxItems, cfg.CacheTTL, logger)
	if err != nil {
		log.Fatalf("Failed to create rate cache: %v", err)
	}
	costModels, err := repository.NewFileCostModelStore(filepath.Join(cfg.DataDir, "cost_models.json"), logger)
	if err != nil {
		log.Fatalf("Failed to load cost models file: %v", err)
	}

	// SQLite audit store
	auditStore, err := audit.NewSQLiteStore(cfg.AssessmentDBPath())
	if err != nil {
		log.Fatalf("Failed to open assessment database: %v", err)
	}
	defer auditStore.Close()

	// Optional extraction service
	var extractor domain.FeatureExtractor
	if cfg.ExtractionURL != "" {
		client := extraction.NewClient(extraction.Config{
			BaseURL: cfg.ExtractionURL,
			APIKey:  cfg.ExtractionAPIKey,
		})
		extractor = extraction.NewResilientExtractor(client, logger)
	}

	// Pipeline services with documented defaults
	classifier := service.NewClassifier(logger)
	calculator := service.NewCalculator(logger)
	estimator := service.NewEstimator(logger, domain.DefaultCostPolicy())
	scorer := service.NewScorer(logger, domain.DefaultScoringWeights(), domain.DefaultScoreThresholds())

	assessor := service.NewAssessor(
		logger,
		classifier,
		calculator,
		estimator,
		scorer,
		cachedRates,
		costModels,
		auditStore,
		domain.DefaultTargetCensusPct,
	)

	httpConfig := &domain.Config{
		Server: domain.ServerConfig{
			Host:         "0.0.0.0",
			Port:         cfg.HTTPPort,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: domain.LoggingConfig{Level: cfg.LogLevel},
	}

	server := api.NewServer(httpConfig, logger, assessor, extractor, auditStore)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}

	logger.Info("SNF Admission Engine (Lite) stopped")
}
