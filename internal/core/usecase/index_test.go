package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

type indexRepoFake struct {
	chunkRepoFake

	statuses []domain.DocumentStatus
	saved    []domain.Chunk
	saveErr  error
}

func (f *indexRepoFake) UpdateDocumentStatus(_ context.Context, _ string, status domain.DocumentStatus, _ string) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *indexRepoFake) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, chunks...)
	return nil
}

type indexEmbedderFake struct {
	err   error
	texts []string
}

func (f *indexEmbedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func (f *indexEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

type indexSinkFake struct {
	searchIndexFake

	indexed  int
	indexErr error
}

func (f *indexSinkFake) IndexChunks(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed += len(chunks)
	return nil
}

func testBatch() domain.ChunkBatch {
	return domain.ChunkBatch{
		DocumentID: "doc-1",
		Source:     "handbook.md",
		Chunks: []domain.Chunk{
			{ID: "c-1", Content: "first", Ordinal: 0},
			{ID: "c-2", Content: "second", Ordinal: 1},
		},
	}
}

func TestIndexBatchHappyPath(t *testing.T) {
	repo := &indexRepoFake{}
	embedder := &indexEmbedderFake{}
	sink := &indexSinkFake{}
	uc := NewIndexChunksUseCase(repo, embedder, sink)

	if err := uc.IndexBatch(context.Background(), testBatch()); err != nil {
		t.Fatalf("IndexBatch() error = %v", err)
	}
	if len(repo.saved) != 2 {
		t.Fatalf("expected 2 chunks saved, got %d", len(repo.saved))
	}
	if sink.indexed != 2 {
		t.Fatalf("expected 2 chunks indexed, got %d", sink.indexed)
	}
	wantStatuses := []domain.DocumentStatus{domain.StatusIndexing, domain.StatusReady}
	if len(repo.statuses) != 2 || repo.statuses[0] != wantStatuses[0] || repo.statuses[1] != wantStatuses[1] {
		t.Fatalf("expected status transitions %v, got %v", wantStatuses, repo.statuses)
	}
}

func TestIndexBatchEmbedFailureMarksFailed(t *testing.T) {
	repo := &indexRepoFake{}
	embedder := &indexEmbedderFake{err: errors.New("embedder down")}
	uc := NewIndexChunksUseCase(repo, embedder, &indexSinkFake{})

	if err := uc.IndexBatch(context.Background(), testBatch()); err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statuses[len(repo.statuses)-1]
	if last != domain.StatusFailed {
		t.Fatalf("expected final status=failed, got %s", last)
	}
}

func TestIndexBatchRejectsChildWithoutParent(t *testing.T) {
	batch := domain.ChunkBatch{
		DocumentID: "doc-1",
		Chunks: []domain.Chunk{
			{ID: "c-1", Content: "text", Level: domain.LevelChild},
		},
	}
	uc := NewIndexChunksUseCase(&indexRepoFake{}, &indexEmbedderFake{}, &indexSinkFake{})

	err := uc.IndexBatch(context.Background(), batch)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
