package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkarpenko/fashion-rag-service/internal/config"
	"github.com/mkarpenko/fashion-rag-service/internal/core/ports"
	"github.com/mkarpenko/fashion-rag-service/internal/core/usecase"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/chunking"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/crawler"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/generation"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/queue/nats"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/resilience"
	"github.com/mkarpenko/fashion-rag-service/internal/infrastructure/store/weaviate"
	"github.com/mkarpenko/fashion-rag-service/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue   ports.RefreshQueue
	Store   ports.DocumentStore
	Metrics *metrics.HTTPServerMetrics

	IngestUC *usecase.IngestRegulationsUseCase
	QueryUC  *usecase.SupportQueryUseCase
	StatusUC *usecase.StatusUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger, service string) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())

	store := weaviate.New(cfg.WeaviateURL, cfg.WeaviateAPIKey, cfg.CollectionName, cfg.RequestTimeout, executor)
	// The store may still be starting. Insert paths re-ensure, so a
	// failed ensure here only costs a warning.
	if err := store.EnsureCollection(ctx); err != nil {
		logger.Warn("collection_ensure_deferred", "collection", cfg.CollectionName, "error", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init refresh queue: %w", err)
	}

	source, err := crawler.NewSource(crawler.Options{
		RatePerSecond: cfg.CrawlerRatePerSecond,
		FetchTimeout:  cfg.CrawlerFetchTimeout,
		CachePath:     cfg.CrawlerCachePath,
	}, logger)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("init crawler source: %w", err)
	}

	serverMetrics := metrics.NewHTTPServerMetrics(service)
	generator := generation.NewRouterFromConfig(cfg, logger, func(strategy string) {
		serverMetrics.RecordAnswerStrategy(service, strategy)
	})

	chunker := chunking.NewSplitter()

	ingestUC := usecase.NewIngestRegulationsUseCase(chunker, store, source, cfg.ChunkSize, cfg.ChunkOverlap)
	queryUC := usecase.NewSupportQueryUseCase(store, generator, cfg.RAGTopK)
	statusUC := usecase.NewStatusUseCase(store)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Queue:   queue,
		Store:   store,
		Metrics: serverMetrics,

		IngestUC: ingestUC,
		QueryUC:  queryUC,
		StatusUC: statusUC,

		closeFn: func() {
			queue.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
