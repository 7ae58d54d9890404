package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/snf-admission-engine/internal/api"
	"github.com/snf-admission-engine/internal/audit"
	"github.com/snf-admission-engine/internal/config"
	"github.com/snf-admission-engine/internal/database"
	"github.com/snf-admission-engine/internal/domain"
	"github.com/snf-admission-engine/internal/repository"
	"github.com/snf-admission-engine/internal/service"
	"github.com/snf-admission-engine/pkg/extraction"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting SNF Admission Engine")

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

	// Rates database
	db, err := database.NewConnection(ctx, database.ConfigFromApp(cfg.Database), logger)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Rate and cost model stores, with the LRU cache in front of rates
	rateRepo := repository.NewRateRepository(db.Pool, logger)
	cachedRates, err := repository.NewCachedRateStore(rateRepo, cfg.Cache.RateCacheLen, cfg.Cache.RateCacheTTL, logger)
	if err != nil {
		logger.Fatalf("Failed to create rate cache: %v", err)
	}
	costModelRepo := repository.NewCostModelRepository(db.Pool, logger)

	// Audit store
	auditStore, err := newAuditStore(cfg, configManager)
	if err != nil {
		logger.Fatalf("Failed to create audit store: %v", err)
	}
	defer auditStore.Close()

	// Feature extraction client (optional)
	extractor := newExtractor(cfg, logger)

	// Pipeline services
	classifier := service.NewClassifier(logger)
	calculator := service.NewCalculator(logger)
	estimator := service.NewEstimator(logger, cfg.Cost.Policy())
	scorer := service.NewScorer(logger, cfg.Scoring.Weights(), cfg.Scoring.Thresholds())

	assessor := service.NewAssessor(
		logger,
		classifier,
		calculator,
		estimator,
		scorer,
		cachedRates,
		costModelRepo,
		auditStore,
		cfg.Scoring.TargetCensusPct,
	)

	// HTTP server
	server := api.NewServer(cfg, logger, assessor, extractor, auditStore)
	if err := server.Start(ctx); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// newAuditStore builds the configured assessment audit backend.
func newAuditStore(cfg *domain.Config, manager *config.Manager) (domain.AssessmentStore, error) {
	switch cfg.Audit.Backend {
	case "postgres":
		return audit.NewPostgresStoreFromURL(manager.GetDatabaseConnectionString())
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Audit.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported audit backend %q", cfg.Audit.Backend)
	}
}

// newExtractor builds the extraction client stack: HTTP client, circuit
// breaker, and the Redis cache when one is configured. Returns nil when no
// extraction service is configured; the API then requires structured
// features on every request.
func newExtractor(cfg *domain.Config, logger *logrus.Logger) domain.FeatureExtractor {
	if cfg.Extraction.BaseURL == "" {
		logger.Warn("No extraction service configured; referral text extraction disabled")
		return nil
	}

	client := extraction.NewClient(extraction.ConfigFromApp(cfg.Extraction))
	var extractor domain.FeatureExtractor = extraction.NewResilientExtractor(client, logger)

	if cfg.Cache.RedisURL != "" {
		cacheClient, err := extraction.NewCacheClient(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("Extraction cache unavailable, continuing without it")
			return extractor
		}
		extractor = extraction.NewCachingExtractor(extractor, cacheClient, cfg.Cache.DefaultTTL, logger)
	}

	return extractor
}
