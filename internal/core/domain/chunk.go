package domain

import "time"

type ChunkLevel string

const (
	LevelStandalone ChunkLevel = "standalone"
	LevelParent     ChunkLevel = "parent"
	LevelChild      ChunkLevel = "child"
)

// Chunk is the atomic retrievable unit. Chunks are created upstream during
// ingestion and are immutable once indexed; the engine only reads them.
type Chunk struct {
	ID          string     `json:"id"`
	DocumentID  string     `json:"document_id"`
	Content     string     `json:"content"`
	Ordinal     int        `json:"ordinal"`
	Level       ChunkLevel `json:"level"`
	ParentID    string     `json:"parent_id,omitempty"`
	SectionPath []string   `json:"section_path,omitempty"`
}

type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

type Document struct {
	ID        string         `json:"id"`
	Source    string         `json:"source"`
	Status    DocumentStatus `json:"status"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ChunkBatch carries one document's pre-chunked content through the
// indexing queue. Chunk creation happens upstream; the batch arrives with
// ordinals, levels and parent links already assigned.
type ChunkBatch struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Chunks     []Chunk `json:"chunks"`
}
