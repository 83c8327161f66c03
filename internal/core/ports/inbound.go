package ports

import (
	"context"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

// ChunkSearcher is the inbound contract for hybrid retrieval. The result
// carries diagnostic flags (mode, reranked) so callers can observe silent
// degradation without parsing errors.
type ChunkSearcher interface {
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error)
}

// ChunkIndexer is the inbound contract for asynchronous chunk indexing.
type ChunkIndexer interface {
	IndexBatch(ctx context.Context, batch domain.ChunkBatch) error
}

// BatchEnqueuer accepts a pre-chunked document and hands it to the queue.
type BatchEnqueuer interface {
	Enqueue(ctx context.Context, batch domain.ChunkBatch) (*domain.Document, error)
}
