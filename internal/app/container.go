package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"alfredoptarigan/recruit-dashboard/internal/config"
	"alfredoptarigan/recruit-dashboard/internal/repositories"
	"alfredoptarigan/recruit-dashboard/internal/services"
)

// Container holds the wired services shared by the API server and the CLI.
type Container struct {
	DB         *gorm.DB
	Uploads    repositories.CVUploadRepository
	Storage    services.StorageService
	Publisher  services.EventPublisher
	Indexer    services.CandidateIndexer
	Ingestion  services.IngestionService
	Resolver   services.ResolverService
	Candidates services.CandidateService
	Jobs       services.JobService

	log *zap.Logger
}

func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	db, err := config.InitDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	jobRepo := repositories.NewJobRepository(db)
	candidateRepo := repositories.NewCandidateRepository(db)
	uploadRepo := repositories.NewCVUploadRepository(db)

	storage := services.NewStorageService(cfg.Storage.UploadPath, cfg.Storage.AllowedExtensions, cfg.Storage.MaxFileSize)
	if err := storage.EnsureUploadDir(); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	gemini, err := services.NewGeminiService(ctx, services.GeminiConfig{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		MaxRetries: cfg.Gemini.MaxRetries,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini: %w", err)
	}
	log.Info("gemini initialized", zap.String("model", cfg.Gemini.Model))

	indexer, err := buildIndexer(ctx, cfg, log, services.IndexerDeps{
		Candidates: candidateRepo,
		Uploads:    uploadRepo,
		Storage:    storage,
		Parser:     services.NewPDFParserService(),
		Chunker:    services.NewTextChunker(),
		Embedder:   gemini,
	})
	if err != nil {
		return nil, err
	}

	publisher := services.NewNoopPublisher()
	if cfg.RabbitMQ.URL != "" {
		publisher, err = services.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rabbitmq publisher: %w", err)
		}
		log.Info("rabbitmq publisher initialized", zap.String("queue", cfg.RabbitMQ.Queue))
	}

	return &Container{
		DB:        db,
		Uploads:   uploadRepo,
		Storage:   storage,
		Publisher: publisher,
		Indexer:   indexer,
		Ingestion: services.NewIngestionService(services.IngestionDeps{
			Jobs:       jobRepo,
			Candidates: candidateRepo,
			Uploads:    uploadRepo,
			Storage:    storage,
			Extractor:  services.NewExtractor(gemini, log),
			Publisher:  publisher,
			Indexer:    indexer,
		}, log),
		Resolver: services.NewResolverService(services.ResolverDeps{
			Candidates: candidateRepo,
			Uploads:    uploadRepo,
			Publisher:  publisher,
			Indexer:    indexer,
		}, log),
		Candidates: services.NewCandidateService(candidateRepo, indexer, log),
		Jobs:       services.NewJobService(jobRepo),
		log:        log,
	}, nil
}

// buildIndexer returns the no-op indexer when no vector store is configured.
func buildIndexer(ctx context.Context, cfg *config.Config, log *zap.Logger, deps services.IndexerDeps) (services.CandidateIndexer, error) {
	if cfg.Qdrant.URL == "" {
		log.Warn("QDRANT_URL not set, similarity search disabled")
		return services.NewNoopIndexer(), nil
	}

	store, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}
	if err := store.InitCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}
	log.Info("qdrant initialized", zap.String("collection", cfg.Qdrant.Collection))

	deps.Store = store
	return services.NewCandidateIndexer(deps, cfg.Indexer.Concurrency, cfg.Indexer.QueueSize, log), nil
}

// Close stops background work and releases connections. It is safe to call
// once after Build succeeded.
func (c *Container) Close() {
	c.Indexer.Stop()

	if err := c.Publisher.Close(); err != nil {
		c.log.Warn("failed to close event publisher", zap.Error(err))
	}
	if err := config.CloseDatabase(c.DB); err != nil {
		c.log.Warn("failed to close database", zap.Error(err))
	}
}
