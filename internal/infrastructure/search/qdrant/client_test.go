package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

func TestIndexChunksEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/chunks/points":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	chunks := []domain.Chunk{
		{ID: "c1", DocumentID: "d1", Content: "alpha"},
		{ID: "c2", DocumentID: "d1", Content: "beta"},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := client.IndexChunks(context.Background(), chunks, vectors); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&ensureCalls); got != 1 {
		t.Fatalf("expected ensure collection called once, got %d", got)
	}
}

func TestIndexChunksRejectsVectorCountMismatch(t *testing.T) {
	client := New("http://unused", "chunks")
	err := client.IndexChunks(context.Background(), []domain.Chunk{{ID: "c1"}}, [][]float32{{0.1}, {0.2}})
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/chunks" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	err := client.IndexChunks(context.Background(), []domain.Chunk{{ID: "c1", Content: "a"}}, [][]float32{{0.1, 0.2}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected error to include body, got %v", err)
	}
}

func TestSemanticSearchAppliesDocumentFilterAndSortsTies(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/collections/chunks/points/query" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&capturedBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":{"points":[
			{"score":0.9,"payload":{"chunk_id":"c2"}},
			{"score":0.9,"payload":{"chunk_id":"c1"}},
			{"score":0.5,"payload":{"chunk_id":"c3"}}
		]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	hits, err := client.SemanticSearch(context.Background(), []float32{0.1, 0.2}, 10, domain.SearchFilter{DocumentIDs: []string{"d1", "d2"}})
	if err != nil {
		t.Fatalf("SemanticSearch() error = %v", err)
	}

	wantOrder := []string{"c1", "c2", "c3"}
	if len(hits) != len(wantOrder) {
		t.Fatalf("expected %d hits, got %d", len(wantOrder), len(hits))
	}
	for i, want := range wantOrder {
		if hits[i].ChunkID != want {
			t.Fatalf("hit %d: expected %s, got %s", i, want, hits[i].ChunkID)
		}
	}

	if capturedBody["using"] != denseVectorName {
		t.Fatalf("expected dense vector query, got %v", capturedBody["using"])
	}
	raw, _ := json.Marshal(capturedBody["filter"])
	if !strings.Contains(string(raw), `"doc_id"`) || !strings.Contains(string(raw), `"d2"`) {
		t.Fatalf("expected doc_id filter with allow-list, got %s", raw)
	}
}

func TestLexicalSearchUsesSparseVector(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&capturedBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":{"points":[{"score":1.2,"payload":{"chunk_id":"c1"}}]}}`))
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	hits, err := client.LexicalSearch(context.Background(), "tls handshake", 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("LexicalSearch() error = %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "c1" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	if capturedBody["using"] != sparseVectorName {
		t.Fatalf("expected sparse vector query, got %v", capturedBody["using"])
	}
	query, ok := capturedBody["query"].(map[string]any)
	if !ok {
		t.Fatalf("expected sparse query object, got %v", capturedBody["query"])
	}
	if indices, ok := query["indices"].([]any); !ok || len(indices) == 0 {
		t.Fatalf("expected sparse indices, got %v", query["indices"])
	}
}

func TestLexicalSearchEmptyExpressionSkipsRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	client := New(server.URL, "chunks")
	hits, err := client.LexicalSearch(context.Background(), "---", 5, domain.SearchFilter{})
	if err != nil {
		t.Fatalf("LexicalSearch() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %+v", hits)
	}
}
