package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
)

// expandAdjacentContext attaches the previous/next sibling content to each
// result via one batched repository lookup. Ordering and scores are never
// touched; boundary chunks simply miss the absent side.
func expandAdjacentContext(ctx context.Context, repo ports.ChunkRepository, results []domain.RankedResult) error {
	if len(results) == 0 {
		return nil
	}

	chunks := make([]domain.Chunk, 0, len(results))
	for _, r := range results {
		chunks = append(chunks, r.Chunk)
	}

	adjacent, err := repo.GetAdjacent(ctx, chunks)
	if err != nil {
		return fmt.Errorf("fetch adjacent chunks: %w", err)
	}

	for i := range results {
		neighbours, ok := adjacent[results[i].Chunk.ID]
		if !ok {
			continue
		}
		results[i].PrevContent = neighbours.Prev
		results[i].NextContent = neighbours.Next
	}
	return nil
}
