package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
	"github.com/kirillkom/docqa-engine/internal/core/ports"
)

type SearchConfig struct {
	// ChannelCandidates is the per-channel limit K handed to the chunk
	// store before fusion.
	ChannelCandidates int
	FusionK           int
	RerankCandidates  int
	DefaultTopK       int
	RerankTimeout     time.Duration
	ConceptMarkers    []string
}

func (c SearchConfig) normalize() SearchConfig {
	out := c
	if out.ChannelCandidates <= 0 {
		out.ChannelCandidates = 30
	}
	if out.FusionK <= 0 {
		out.FusionK = defaultFusionK
	}
	if out.RerankCandidates <= 0 {
		out.RerankCandidates = 20
	}
	if out.DefaultTopK <= 0 {
		out.DefaultTopK = 5
	}
	if out.RerankTimeout <= 0 {
		out.RerankTimeout = 800 * time.Millisecond
	}
	return out
}

type SearchUseCase struct {
	embedder ports.Embedder
	index    ports.SearchIndex
	repo     ports.ChunkRepository
	reranker ports.Reranker
	cfg      SearchConfig
	rules    []alphaRule
}

func NewSearchUseCase(
	embedder ports.Embedder,
	index ports.SearchIndex,
	repo ports.ChunkRepository,
	reranker ports.Reranker,
	cfg SearchConfig,
) *SearchUseCase {
	cfg = cfg.normalize()
	return &SearchUseCase{
		embedder: embedder,
		index:    index,
		repo:     repo,
		reranker: reranker,
		cfg:      cfg,
		rules:    defaultAlphaRules(cfg.ConceptMarkers),
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	normalized := normalizeQuery(query, opts.Language)
	if len(normalized.Tokens) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyQuery, "search", fmt.Errorf("no searchable tokens in query"))
	}

	alpha, rule := selectAlpha(normalized, uc.rules)
	if opts.Alpha != nil {
		alpha = clamp01(*opts.Alpha)
		rule = "override"
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = uc.cfg.DefaultTopK
	}

	semantic, lexical := uc.retrieveChannels(ctx, query, normalized.Expression(), opts.Filter)

	mode := domain.ModeHybrid
	switch {
	case semantic.err != nil && lexical.err != nil:
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "search",
			errors.Join(semantic.err, lexical.err))
	case semantic.err != nil:
		slog.Warn("semantic_channel_degraded", "error", semantic.err)
		mode = domain.ModeLexicalOnly
		alpha = 0
		semantic.hits = nil
	case lexical.err != nil:
		slog.Warn("lexical_channel_degraded", "error", lexical.err)
		mode = domain.ModeSemanticOnly
		alpha = 1
		lexical.hits = nil
	}

	slog.Debug("channels_retrieved",
		"alpha", alpha,
		"alpha_rule", rule,
		"mode", string(mode),
		"semantic_hits", len(semantic.hits),
		"lexical_hits", len(lexical.hits),
	)

	fused := fuseReciprocalRank(semantic.hits, lexical.hits, alpha, uc.cfg.FusionK)
	if len(fused) == 0 {
		return &domain.SearchResult{Results: []domain.RankedResult{}, Mode: mode, Alpha: alpha, AlphaRule: rule}, nil
	}

	candidates, err := uc.resolveFused(ctx, fused)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RankedResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, domain.RankedResult{
			Chunk:                c.Chunk,
			FusedScore:           c.Score,
			ResolvedFromChildIDs: c.ChildIDs,
		})
	}

	reranked := false
	if opts.Rerank && uc.reranker != nil {
		results, reranked = uc.rerankResults(ctx, query, results)
	}
	results = trimResults(results, topK)

	if opts.ExpandContext {
		if err := expandAdjacentContext(ctx, uc.repo, results); err != nil {
			slog.Warn("context_expansion_skipped", "error", err)
		}
	}

	return &domain.SearchResult{Results: results, Mode: mode, Reranked: reranked, Alpha: alpha, AlphaRule: rule}, nil
}

type channelResult struct {
	hits []domain.ChannelHit
	err  error
}

// retrieveChannels runs the semantic and lexical queries concurrently and
// waits for both. Neither call blocks the other; cancellation of the
// request context reaches both through ctx.
func (uc *SearchUseCase) retrieveChannels(
	ctx context.Context,
	rawQuery, expression string,
	filter domain.SearchFilter,
) (channelResult, channelResult) {
	var semantic, lexical channelResult
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		vector, err := uc.embedder.EmbedQuery(ctx, rawQuery)
		if err != nil {
			semantic.err = fmt.Errorf("embed query: %w", err)
			return
		}
		semantic.hits, semantic.err = uc.index.SemanticSearch(ctx, vector, uc.cfg.ChannelCandidates, filter)
	}()
	go func() {
		defer wg.Done()
		lexical.hits, lexical.err = uc.index.LexicalSearch(ctx, expression, uc.cfg.ChannelCandidates, filter)
	}()
	wg.Wait()

	return semantic, lexical
}

func (uc *SearchUseCase) resolveFused(ctx context.Context, fused []fusedHit) ([]resolvedCandidate, error) {
	ids := make([]string, 0, len(fused))
	for _, hit := range fused {
		ids = append(ids, hit.ChunkID)
	}

	chunks, err := uc.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunk records: %w", err)
	}

	if parents := missingParentIDs(fused, chunks); len(parents) > 0 {
		parentChunks, err := uc.repo.GetByIDs(ctx, parents)
		if err != nil {
			return nil, fmt.Errorf("load parent chunks: %w", err)
		}
		for id, chunk := range parentChunks {
			chunks[id] = chunk
		}
	}

	return resolveCandidates(fused, chunks), nil
}

// rerankResults re-scores the head of the result list with the external
// cross-encoder. Any failure or timeout falls back to the fused ordering;
// the caller only learns about it through the returned flag.
func (uc *SearchUseCase) rerankResults(ctx context.Context, query string, results []domain.RankedResult) ([]domain.RankedResult, bool) {
	n := len(results)
	if uc.cfg.RerankCandidates > 0 && n > uc.cfg.RerankCandidates {
		n = uc.cfg.RerankCandidates
	}
	if n == 0 {
		return results, false
	}

	head := make([]domain.RankedResult, n)
	copy(head, results[:n])
	passages := make([]string, n)
	for i := range head {
		passages[i] = head[i].Chunk.Content
	}

	rerankCtx, cancel := context.WithTimeout(ctx, uc.cfg.RerankTimeout)
	defer cancel()

	scores, err := uc.reranker.Score(rerankCtx, query, passages)
	if err != nil {
		slog.Warn("rerank_fallback", "error", err, "candidates", n)
		return results, false
	}
	if len(scores) != n {
		slog.Warn("rerank_fallback", "error", fmt.Errorf("expected %d scores, got %d", n, len(scores)))
		return results, false
	}

	for i := range head {
		score := scores[i]
		head[i].RerankScore = &score
	}
	sort.SliceStable(head, func(i, j int) bool {
		if *head[i].RerankScore != *head[j].RerankScore {
			return *head[i].RerankScore > *head[j].RerankScore
		}
		return head[i].Chunk.ID < head[j].Chunk.ID
	})

	out := make([]domain.RankedResult, 0, len(results))
	out = append(out, head...)
	out = append(out, results[n:]...)
	return out, true
}

func trimResults(results []domain.RankedResult, limit int) []domain.RankedResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	return results[:limit]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
