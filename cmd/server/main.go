package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/readmit-risk-server/internal/api"
	"github.com/readmit-risk-server/internal/config"
	"github.com/readmit-risk-server/internal/database"
	"github.com/readmit-risk-server/internal/extract"
	"github.com/readmit-risk-server/internal/feedback"
	"github.com/readmit-risk-server/internal/geo"
	"github.com/readmit-risk-server/internal/repository"
	"github.com/readmit-risk-server/internal/riskmodel"
	"github.com/readmit-risk-server/internal/service"
	"github.com/readmit-risk-server/pkg/judge"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting readmission risk server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewConnection(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		Database:    cfg.Database.Database,
		Username:    cfg.Database.Username,
		Password:    cfg.Database.Password,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.ConnMaxLifetime,
		MaxConnIdle: cfg.Database.ConnMaxIdleTime,
		SSLMode:     cfg.Database.SSLMode,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := database.NewMigrator(cfg.Database.URL(), cfg.Database.MigrationsPath, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open migrations")
	}
	if err := migrator.Apply(); err != nil {
		logger.WithError(err).Fatal("Failed to migrate prediction schema")
	}
	migrator.Close()

	var redisClient *redis.Client
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Invalid redis URL")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	modelCfg := riskmodel.V1()

	rucaResolver, err := geo.NewResolver(db.Pool, redisClient, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create ruca resolver")
	}

	patientData := repository.NewPatientDataRepository(db.Pool, logger)
	predictionStore := repository.NewPredictionRepository(db.Pool, logger)
	tenants, err := repository.NewTenantRepository(db.Pool, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create tenant repository")
	}

	aggregator := extract.NewAggregator(
		modelCfg,
		logger,
		extract.NewClinicalExtractor(modelCfg, patientData, logger),
		extract.NewMedicationExtractor(modelCfg, patientData, extract.UnwiredMedicationChangeDetector{}, logger),
		extract.NewPostDischargeExtractor(modelCfg, patientData, extract.UnwiredInstructionConfirmation{}, logger),
		extract.NewSocialExtractor(modelCfg, patientData, rucaResolver, logger),
		extract.NewFunctionalExtractor(modelCfg, patientData, logger),
		extract.NewEngagementExtractor(modelCfg, patientData, logger),
		extract.NewSelfReportExtractor(modelCfg, patientData, logger),
	)

	judgeClient := judge.NewClient(judge.Config{
		BaseURL:        cfg.Judge.BaseURL,
		APIKey:         cfg.Judge.APIKey,
		Timeout:        cfg.Judge.Timeout,
		RequestsPerSec: cfg.Judge.RequestsPerSec,
		Burst:          cfg.Judge.Burst,
	}, logger)

	outcomes, err := newFeedbackStore(cfg)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create outcome feedback store")
	}
	defer outcomes.Close()

	alertHub := api.NewAlertHub(logger)
	defer alertHub.Close()

	predictor := service.NewPredictor(
		modelCfg,
		logger,
		aggregator,
		judgeClient,
		predictionStore,
		tenants,
		nil, // care-plan creation is handled by the downstream care platform
		alertHub,
		nil, // accuracy enrollment is recorded through the outcomes API
	)

	server := api.NewServer(cfg, logger, predictor, predictionStore, outcomes, db, alertHub)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func newFeedbackStore(cfg *config.Config) (feedback.Store, error) {
	if cfg.Feedback.Backend == "sqlite" {
		return feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
	}
	return feedback.NewPostgresStoreFromURL(cfg.Database.URL())
}
