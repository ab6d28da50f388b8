package container

import (
	"context"
	"fmt"
	"net/http"

	"go-skin-analyzer/internal/analysis"
	"go-skin-analyzer/internal/config"
	"go-skin-analyzer/internal/device"
	"go-skin-analyzer/internal/history"
	"go-skin-analyzer/internal/inference"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/observer"
	"go-skin-analyzer/internal/repository"
	"go-skin-analyzer/internal/storage"
	"go-skin-analyzer/internal/transport"
	"go-skin-analyzer/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	detector        validation.FaceDetector
	engine          inference.Engine
	metricsObserver *observer.MetricsObserver
	historyRepo     repository.HistoryRepository
	deviceCtrl      device.Controller
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// A missing face detection model degrades validation instead of aborting
	// startup; requests then fail with "face detection unavailable" unless
	// the check is skipped.
	var detector validation.FaceDetector
	if !cfg.SkipFaceDetection {
		detector, err = validation.NewYuNetDetector(cfg.FaceModelPath, cfg.MinFaceConfidence)
		if err != nil {
			logger.WithError(err).Warn("Face detector unavailable, validation will reject images")
			detector = nil
		}
	}

	thresholds := validation.DefaultThresholds()
	thresholds.MinFaceConfidence = cfg.MinFaceConfidence
	thresholds.SkipSizeCheck = cfg.SkipSizeCheck
	thresholds.SkipBrightnessCheck = cfg.SkipBrightnessCheck
	thresholds.SkipFaceDetection = cfg.SkipFaceDetection
	validator := validation.NewFaceValidatorWithThresholds(detector, thresholds)

	var engine inference.Engine
	var remote transport.HealthChecker
	if cfg.InferenceMode == config.InferenceModeRemote {
		remoteEngine := inference.NewRemoteEngine(cfg.RemoteInferenceURL, cfg.RemoteInferenceAPIKey, cfg.RemoteInferenceTimeout)
		engine = remoteEngine
		remote = remoteEngine
	} else {
		engine = inference.NewLocalEngine(inference.LoadModels(cfg.ModelDir))
	}

	publisher := observer.NewEventPublisher()
	metricsObserver := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metricsObserver)

	analysisService := analysis.NewService(validator, engine, publisher)

	var historyRepo repository.HistoryRepository
	if cfg.MongoURI != "" {
		historyRepo, err = repository.NewMongoHistoryRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect history repository: %w", err)
		}
	} else {
		logger.Warn("No MONGO_URI configured, history is kept in memory")
		historyRepo = repository.NewMemoryHistoryRepository()
	}
	historyService := history.NewService(historyRepo)

	var archiver storage.ResultArchiver
	if cfg.ArchivingEnabled() {
		archiver, err = storage.NewAzureArchiver(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer)
		if err != nil {
			logger.WithError(err).Warn("Result archiving unavailable")
			archiver = nil
		}
	}

	var deviceCtrl device.Controller
	if cfg.SerialPort != "" {
		deviceCtrl, err = device.NewSerialController(cfg.SerialPort)
		if err != nil {
			return nil, fmt.Errorf("failed to connect LED device: %w", err)
		}
	} else {
		deviceCtrl = device.NewMockController()
	}

	handler := transport.NewHandler(transport.Dependencies{
		Analysis: analysisService,
		Fetcher:  storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout),
		History:  historyService,
		Device:   deviceCtrl,
		Metrics:  metricsObserver,
		Archiver: archiver,
		Remote:   remote,
		Config:   cfg,
	})

	return &Container{
		config:          cfg,
		detector:        detector,
		engine:          engine,
		metricsObserver: metricsObserver,
		historyRepo:     historyRepo,
		deviceCtrl:      deviceCtrl,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases models, the detector, the device and the repository.
func (c *Container) Close(ctx context.Context) {
	if err := c.engine.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close inference engine")
	}
	if c.detector != nil {
		if err := c.detector.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close face detector")
		}
	}
	if err := c.deviceCtrl.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close LED device")
	}
	if err := c.historyRepo.Close(ctx); err != nil {
		logger.WithError(err).Warn("Failed to close history repository")
	}
}
