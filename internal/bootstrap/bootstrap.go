package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/docqa-engine/internal/config"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
	"github.com/kirillkom/docqa-engine/internal/core/usecase"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/embedding/ollama"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/queue/nats"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/rerank/crossencoder"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/resilience"
	"github.com/kirillkom/docqa-engine/internal/infrastructure/search/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.ChunkRepository

	SearchUC  ports.ChunkSearcher
	EnqueueUC ports.BatchEnqueuer
	IndexUC   ports.ChunkIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewChunkRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := ollama.NewEmbedder(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		ResilienceExecutor: executor,
	})
	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	var reranker ports.Reranker
	if cfg.RerankURL != "" {
		reranker = crossencoder.New(cfg.RerankURL, cfg.RerankModel, time.Duration(cfg.RerankTimeoutMS)*time.Millisecond)
	}

	searchUC := usecase.NewSearchUseCase(embedder, index, repo, reranker, usecase.SearchConfig{
		ChannelCandidates: cfg.SearchChannelCandidates,
		FusionK:           cfg.SearchFusionK,
		RerankCandidates:  cfg.SearchRerankCandidates,
		DefaultTopK:       cfg.SearchDefaultTopK,
		RerankTimeout:     time.Duration(cfg.RerankTimeoutMS) * time.Millisecond,
		ConceptMarkers:    cfg.ConceptMarkers(),
	})
	enqueueUC := usecase.NewEnqueueChunksUseCase(repo, queue)
	indexUC := usecase.NewIndexChunksUseCase(repo, embedder, index)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		SearchUC:  searchUC,
		EnqueueUC: enqueueUC,
		IndexUC:   indexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
