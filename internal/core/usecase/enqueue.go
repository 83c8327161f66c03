package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
)

// EnqueueChunksUseCase registers a pre-chunked document and hands the
// batch to the indexing queue. Chunk creation itself happens upstream.
type EnqueueChunksUseCase struct {
	repo  ports.ChunkRepository
	queue ports.MessageQueue
}

func NewEnqueueChunksUseCase(repo ports.ChunkRepository, queue ports.MessageQueue) *EnqueueChunksUseCase {
	return &EnqueueChunksUseCase{repo: repo, queue: queue}
}

func (uc *EnqueueChunksUseCase) Enqueue(ctx context.Context, batch domain.ChunkBatch) (*domain.Document, error) {
	if err := validateBatch(&batch); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "enqueue chunks", err)
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        batch.DocumentID,
		Source:    batch.Source,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if err := uc.queue.PublishChunkBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("publish chunk batch: %w", err)
	}
	return doc, nil
}

func validateBatch(batch *domain.ChunkBatch) error {
	if strings.TrimSpace(batch.DocumentID) == "" {
		batch.DocumentID = uuid.NewString()
	}
	if len(batch.Chunks) == 0 {
		return fmt.Errorf("batch has no chunks")
	}

	for i := range batch.Chunks {
		chunk := &batch.Chunks[i]
		if strings.TrimSpace(chunk.ID) == "" {
			chunk.ID = uuid.NewString()
		}
		chunk.DocumentID = batch.DocumentID
		if strings.TrimSpace(chunk.Content) == "" {
			return fmt.Errorf("chunk %s has empty content", chunk.ID)
		}
		switch chunk.Level {
		case "":
			chunk.Level = domain.LevelStandalone
		case domain.LevelStandalone, domain.LevelParent:
			if chunk.ParentID != "" {
				return fmt.Errorf("chunk %s is %s but carries a parent id", chunk.ID, chunk.Level)
			}
		case domain.LevelChild:
			if chunk.ParentID == "" {
				return fmt.Errorf("child chunk %s has no parent id", chunk.ID)
			}
		default:
			return fmt.Errorf("chunk %s has unknown level %q", chunk.ID, chunk.Level)
		}
	}
	return nil
}
