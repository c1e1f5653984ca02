package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/aptus/internal/common"
	"github.com/ternarybob/aptus/internal/handlers"
	"github.com/ternarybob/aptus/internal/interfaces"
	"github.com/ternarybob/aptus/internal/services/alerts"
	"github.com/ternarybob/aptus/internal/services/audit"
	"github.com/ternarybob/aptus/internal/services/capsule"
	"github.com/ternarybob/aptus/internal/services/classifier"
	"github.com/ternarybob/aptus/internal/services/embeddings"
	"github.com/ternarybob/aptus/internal/services/gate"
	"github.com/ternarybob/aptus/internal/services/llm"
	"github.com/ternarybob/aptus/internal/services/matching"
	"github.com/ternarybob/aptus/internal/services/pinecone"
	"github.com/ternarybob/aptus/internal/services/scheduler"
	badgerstore "github.com/ternarybob/aptus/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Clients
	VectorStore      interfaces.VectorStore
	EmbeddingService interfaces.EmbeddingService
	LLMService       interfaces.LLMService

	// Domain services
	ClassifierService *classifier.Service
	CapsuleBuilder    *capsule.Builder
	GateService       *gate.Service
	MatchingService   *matching.Service
	AuditSink         *audit.Sink
	Alerter           *alerts.SlackAlerter
	Sweeper           *scheduler.Sweeper

	// HTTP handlers
	APIHandler           *handlers.APIHandler
	UserHandler          *handlers.UserHandler
	JobHandler           *handlers.JobHandler
	NotifyHandler        *handlers.NotifyHandler
	MatchHandler         *handlers.MatchHandler
	QualificationHandler *handlers.QualificationHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.Sweeper.Start(); err != nil {
		return nil, fmt.Errorf("failed to start sweep scheduler: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("index", cfg.Pinecone.Index).
		Int("dimension", cfg.Embedding.Dimension).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes clients and business services in dependency order.
func (a *App) initServices() error {
	vectors, err := pinecone.NewClient(&a.Config.Pinecone, a.Config.Embedding.Dimension, a.Config.PineconeTimeout(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create vector store client: %w", err)
	}
	a.VectorStore = vectors

	embedder, err := embeddings.NewGeminiService(context.Background(), &a.Config.Embedding, a.Config.EmbeddingTimeout(), a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding service: %w", err)
	}
	a.EmbeddingService = embedder

	// Classification falls back to the heuristic path when no Claude key
	// is configured.
	if a.Config.Classifier.APIKey != "" {
		llmService, err := llm.NewClaudeService(&a.Config.Classifier, a.Config.ClassifierTimeout(), a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create LLM service: %w", err)
		}
		a.LLMService = llmService
	} else {
		a.Logger.Warn().Msg("No classifier API key configured, using heuristic classification only")
	}

	a.ClassifierService = classifier.NewService(a.LLMService, a.Config.ClassifierTimeout(), a.Logger)
	a.CapsuleBuilder = capsule.NewBuilder()
	a.GateService = gate.NewService(a.EmbeddingService, a.Logger)

	a.AuditSink = audit.NewSink(a.StorageManager.AuditStorage(), a.Config.Audit.BufferSize, a.Config.Audit.Workers, a.Logger)
	a.Alerter = alerts.NewSlackAlerter(&a.Config.Alerts, a.Logger)

	a.MatchingService = matching.NewService(matching.Deps{
		Config:     &a.Config.Matching,
		Vectors:    a.VectorStore,
		Embedder:   a.EmbeddingService,
		Classifier: a.ClassifierService,
		Capsules:   a.CapsuleBuilder,
		Gate:       a.GateService,
		Storage:    a.StorageManager,
		Audit:      a.AuditSink,
		Alerter:    a.Alerter,
		UsersNS:    a.Config.Pinecone.UsersNamespace,
		JobsNS:     a.Config.Pinecone.JobsNamespace,
		Logger:     a.Logger,
	})

	a.Sweeper = scheduler.NewSweeper(&a.Config.Sweep, a.StorageManager.JobStorage(), a.StorageManager.QualificationStorage(), a.Alerter, a.Logger)

	return nil
}

// initHandlers wires the HTTP handlers onto the services.
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.UserHandler = handlers.NewUserHandler(a.MatchingService, a.Logger)
	a.JobHandler = handlers.NewJobHandler(a.MatchingService, a.Logger)
	a.NotifyHandler = handlers.NewNotifyHandler(a.MatchingService, a.Logger)
	a.MatchHandler = handlers.NewMatchHandler(a.MatchingService, a.Logger)
	a.QualificationHandler = handlers.NewQualificationHandler(a.StorageManager.QualificationStorage(), a.Logger)
}

// Close shuts down components in reverse dependency order.
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.AuditSink != nil {
		a.AuditSink.Close()
	}
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
