package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
)

// IndexChunksUseCase persists one chunk batch: metadata and content into
// the repository, dense+sparse vectors into the search index.
type IndexChunksUseCase struct {
	repo     ports.ChunkRepository
	embedder ports.Embedder
	index    ports.SearchIndex
}

func NewIndexChunksUseCase(
	repo ports.ChunkRepository,
	embedder ports.Embedder,
	index ports.SearchIndex,
) *IndexChunksUseCase {
	return &IndexChunksUseCase{
		repo:     repo,
		embedder: embedder,
		index:    index,
	}
}

func (uc *IndexChunksUseCase) IndexBatch(ctx context.Context, batch domain.ChunkBatch) error {
	if err := validateBatch(&batch); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "index batch", err)
	}

	if err := uc.repo.UpdateDocumentStatus(ctx, batch.DocumentID, domain.StatusIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	if err := uc.indexPipeline(ctx, batch); err != nil {
		if failErr := uc.repo.UpdateDocumentStatus(ctx, batch.DocumentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateDocumentStatus(ctx, batch.DocumentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *IndexChunksUseCase) indexPipeline(ctx context.Context, batch domain.ChunkBatch) error {
	if err := uc.repo.SaveChunks(ctx, batch.Chunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	texts := make([]string, 0, len(batch.Chunks))
	for _, chunk := range batch.Chunks {
		texts = append(texts, chunk.Content)
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(batch.Chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch.Chunks))
	}

	if err := uc.index.IndexChunks(ctx, batch.Chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}
