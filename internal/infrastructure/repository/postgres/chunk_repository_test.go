package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ChunkRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestUpdateDocumentStatusReturnsNotFoundWhenNoRowsAffected(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE documents").
		WithArgs("missing", string(domain.StatusIndexing), "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDocumentStatus(context.Background(), "missing", domain.StatusIndexing, "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveChunksUpsertsAllRowsInOneStatement(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO chunks").
		WithArgs(
			"c1", "d1", "alpha", 0, string(domain.LevelChild), "p1", sqlmock.AnyArg(),
			"c2", "d1", "beta", 1, string(domain.LevelChild), "p1", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "alpha", Ordinal: 0, Level: domain.LevelChild, ParentID: "p1"},
		{ID: "c2", DocumentID: "d1", Content: "beta", Ordinal: 1, Level: domain.LevelChild, ParentID: "p1"},
	}
	if err := repo.SaveChunks(context.Background(), chunks); err != nil {
		t.Fatalf("SaveChunks() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDsScansChunksIntoMap(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "document_id", "content", "ordinal", "level", "parent_id", "section_path"}).
		AddRow("c1", "d1", "alpha", 0, "standalone", "", []byte(`["Intro"]`)).
		AddRow("c2", "d1", "beta", 1, "child", "p1", []byte(`[]`))

	mock.ExpectQuery("SELECT id, document_id, content, ordinal, level, parent_id, section_path").
		WithArgs("c1", "c2").
		WillReturnRows(rows)

	got, err := repo.GetByIDs(context.Background(), []string{"c1", "c2"})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got["c1"].Level != domain.LevelStandalone || len(got["c1"].SectionPath) != 1 || got["c1"].SectionPath[0] != "Intro" {
		t.Fatalf("unexpected c1: %+v", got["c1"])
	}
	if got["c2"].ParentID != "p1" || got["c2"].Level != domain.LevelChild {
		t.Fatalf("unexpected c2: %+v", got["c2"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetByIDsEmptyInputSkipsQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	got, err := repo.GetByIDs(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetAdjacentAssemblesBothSidesAndBoundaries(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	// c1 is mid-document, c2 is the last sibling: only a prev row comes back.
	rows := sqlmock.NewRows([]string{"id", "direction", "content"}).
		AddRow("c1", -1, "before c1").
		AddRow("c1", 1, "after c1").
		AddRow("c2", -1, "before c2")

	mock.ExpectQuery("SELECT c.id, n.ordinal - c.ordinal").
		WithArgs("c1", "c2").
		WillReturnRows(rows)

	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Ordinal: 1},
		{ID: "c2", DocumentID: "d1", Ordinal: 5},
	}
	got, err := repo.GetAdjacent(context.Background(), chunks)
	if err != nil {
		t.Fatalf("GetAdjacent() error = %v", err)
	}

	if got["c1"].Prev != "before c1" || got["c1"].Next != "after c1" {
		t.Fatalf("unexpected c1 adjacency: %+v", got["c1"])
	}
	if got["c2"].Prev != "before c2" || got["c2"].Next != "" {
		t.Fatalf("unexpected c2 adjacency: %+v", got["c2"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
