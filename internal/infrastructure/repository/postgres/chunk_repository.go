package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

// ChunkRepository persists chunk content and document lifecycle state.
// Vector search lives in Qdrant; Postgres is the source of truth for
// chunk text, hierarchy links and ordinal neighbours.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	content TEXT NOT NULL,
	ordinal INTEGER NOT NULL,
	level TEXT NOT NULL,
	parent_id TEXT NOT NULL DEFAULT '',
	section_path JSONB NOT NULL DEFAULT '[]'::jsonb
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_chunks_document_siblings ON chunks(document_id, parent_id, ordinal);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, source, status, error_message, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE
SET source = EXCLUDED.source, status = EXCLUDED.status, error_message = EXCLUDED.error_message, updated_at = EXCLUDED.updated_at
`,
		doc.ID, doc.Source, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *ChunkRepository) UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	const cols = 7
	placeholders := make([]string, 0, len(chunks))
	args := make([]any, 0, len(chunks)*cols)
	for i, chunk := range chunks {
		sectionJSON, err := json.Marshal(chunk.SectionPath)
		if err != nil {
			return fmt.Errorf("marshal section path: %w", err)
		}
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, chunk.ID, chunk.DocumentID, chunk.Content, chunk.Ordinal, string(chunk.Level), chunk.ParentID, sectionJSON)
	}

	query := `
INSERT INTO chunks (id, document_id, content, ordinal, level, parent_id, section_path)
VALUES ` + strings.Join(placeholders, ",") + `
ON CONFLICT (id) DO UPDATE
SET document_id = EXCLUDED.document_id, content = EXCLUDED.content, ordinal = EXCLUDED.ordinal,
	level = EXCLUDED.level, parent_id = EXCLUDED.parent_id, section_path = EXCLUDED.section_path
`
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

func (r *ChunkRepository) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Chunk, error) {
	if len(ids) == 0 {
		return map[string]domain.Chunk{}, nil
	}

	query := `
SELECT id, document_id, content, ordinal, level, parent_id, section_path
FROM chunks
WHERE id IN (` + placeholderList(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Chunk, len(ids))
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out[chunk.ID] = chunk
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) GetAdjacent(ctx context.Context, chunks []domain.Chunk) (map[string]domain.AdjacentContent, error) {
	if len(chunks) == 0 {
		return map[string]domain.AdjacentContent{}, nil
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		ids = append(ids, chunk.ID)
	}

	// One self-join fetches both neighbours for every requested chunk.
	// Neighbours are deliberately scoped to siblings: same document and
	// same parent, so a child's context never crosses into another
	// section. Results reaching expansion are standalone or promoted
	// parents with an empty parent_id, for which sibling adjacency and
	// document-wide ordinal adjacency coincide.
	query := `
SELECT c.id, n.ordinal - c.ordinal AS direction, n.content
FROM chunks c
JOIN chunks n
	ON n.document_id = c.document_id
	AND n.parent_id = c.parent_id
	AND n.ordinal BETWEEN c.ordinal - 1 AND c.ordinal + 1
	AND n.id <> c.id
WHERE c.id IN (` + placeholderList(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query adjacent chunks: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.AdjacentContent, len(ids))
	for rows.Next() {
		var id string
		var direction int
		var content string
		if err := rows.Scan(&id, &direction, &content); err != nil {
			return nil, fmt.Errorf("scan adjacent chunk: %w", err)
		}
		adjacent := out[id]
		switch {
		case direction < 0:
			adjacent.Prev = content
		case direction > 0:
			adjacent.Next = content
		}
		out[id] = adjacent
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjacent chunks: %w", err)
	}
	return out, nil
}

func scanChunk(rows *sql.Rows) (domain.Chunk, error) {
	var chunk domain.Chunk
	var level string
	var sectionRaw []byte
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Ordinal, &level, &chunk.ParentID, &sectionRaw); err != nil {
		return domain.Chunk{}, fmt.Errorf("scan chunk: %w", err)
	}
	if len(sectionRaw) > 0 {
		if err := json.Unmarshal(sectionRaw, &chunk.SectionPath); err != nil {
			return domain.Chunk{}, fmt.Errorf("unmarshal section path: %w", err)
		}
	}
	chunk.Level = domain.ChunkLevel(level)
	return chunk, nil
}

func placeholderList(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ",")
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
