package container

import (
	"fmt"
	"net/http"

	"go-vision-console/internal/client"
	"go-vision-console/internal/config"
	"go-vision-console/internal/engine"
	"go-vision-console/internal/logger"
	"go-vision-console/internal/observer"
	"go-vision-console/internal/service"
	"go-vision-console/internal/session"
	"go-vision-console/internal/transport"
	"go-vision-console/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config   *config.Config
	sessions *session.Registry
	metrics  *observer.MetricsObserver
	handler  http.Handler
}

// NewConsoleContainer wires the browser-facing console
func NewConsoleContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	analysisClient := client.NewHTTPAnalysisClient(cfg.BackendURL, cfg.BackendTimeout)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	sessions := session.NewRegistry(session.Dependencies{
		Client:    analysisClient,
		Events:    events,
		Validator: validation.NewUploadValidator(),
	}, cfg.SessionIdleTTL)

	return &Container{
		config:   cfg,
		sessions: sessions,
		metrics:  metrics,
		handler:  transport.NewConsoleHandler(sessions, metrics, cfg),
	}, nil
}

// NewAnalyzerContainer wires the Gemini-backed analysis backend
func NewAnalyzerContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	gemini, err := engine.NewGeminiEngine(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiVisionModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis engine: %w", err)
	}

	svc := service.NewImageAnalysisService(gemini, validation.NewUploadValidator())

	return &Container{
		config:  cfg,
		handler: transport.NewAnalyzerHandler(svc, cfg),
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

// Sessions returns the session registry, nil for the analyzer
func (c *Container) Sessions() *session.Registry {
	return c.sessions
}

// Metrics returns the submission metrics, nil for the analyzer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}
