package ports

import (
	"context"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

// Embedder builds dense vectors for chunk batches and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// SearchIndex answers the two retrieval channels and accepts new chunks.
// Both channels see the same filtered universe; each returns hits sorted
// best-first, ties broken by chunk id.
type SearchIndex interface {
	IndexChunks(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	SemanticSearch(ctx context.Context, vector []float32, limit int, filter domain.SearchFilter) ([]domain.ChannelHit, error)
	LexicalSearch(ctx context.Context, expression string, limit int, filter domain.SearchFilter) ([]domain.ChannelHit, error)
}

// ChunkRepository reads and writes chunk metadata and content.
type ChunkRepository interface {
	CreateDocument(ctx context.Context, doc *domain.Document) error
	UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Chunk, error)
	// GetAdjacent resolves ordinal-neighbour content for every given chunk
	// in a single batched query. Chunks at document boundaries simply miss
	// the corresponding side.
	GetAdjacent(ctx context.Context, chunks []domain.Chunk) (map[string]domain.AdjacentContent, error)
}

// Reranker scores (query, passage) pairs with an external cross-encoder.
// Scores are returned in passage order. Callers fall back to the original
// ordering on any error.
type Reranker interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// MessageQueue publishes/consumes chunk-batch indexing events.
type MessageQueue interface {
	PublishChunkBatch(ctx context.Context, batch domain.ChunkBatch) error
	SubscribeChunkBatches(ctx context.Context, handler func(context.Context, domain.ChunkBatch) error) error
}
