package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
	"github.com/kirillkom/docqa-engine/internal/observability/metrics"
)

const serviceName = "docqa-api"

type Router struct {
	searchUC  ports.ChunkSearcher
	enqueueUC ports.BatchEnqueuer
	metrics   *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxConcurrent  int
}

type RouterOptions struct {
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
}

func NewRouter(searchUC ports.ChunkSearcher, enqueueUC ports.BatchEnqueuer, options RouterOptions) *Router {
	return &Router{
		searchUC:       searchUC,
		enqueueUC:      enqueueUC,
		metrics:        options.Metrics,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxConcurrent:  options.MaxConcurrent,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/documents/chunks", rt.enqueueChunks)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, 50*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type searchRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k"`
	Alpha         *float64 `json:"alpha"`
	Rerank        bool     `json:"rerank"`
	ExpandContext bool     `json:"expand_context"`
	Language      string   `json:"language"`
	DocumentIDs   []string `json:"document_ids"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	result, err := rt.searchUC.Search(r.Context(), req.Query, domain.SearchOptions{
		TopK:          req.TopK,
		Alpha:         req.Alpha,
		Rerank:        req.Rerank,
		ExpandContext: req.ExpandContext,
		Language:      req.Language,
		Filter:        domain.SearchFilter{DocumentIDs: req.DocumentIDs},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		degraded := result.Mode != domain.ModeHybrid
		rerankFallback := req.Rerank && !result.Reranked
		rt.metrics.RecordSearch(serviceName, string(result.Mode), degraded, rerankFallback, len(result.Results), time.Since(start))
		rt.metrics.RecordAlphaRule(serviceName, result.AlphaRule)
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) enqueueChunks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var batch domain.ChunkBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	doc, err := rt.enqueueUC.Enqueue(r.Context(), batch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
