package domain

// SearchFilter restricts retrieval to an allow-list of document ids.
// Access control is resolved upstream; the engine treats the list as
// opaque. An empty list means no restriction.
type SearchFilter struct {
	DocumentIDs []string
}

// ChannelHit is one raw result from a single retrieval channel. The rank
// used for fusion is the hit's 1-based position in the channel list.
type ChannelHit struct {
	ChunkID string
	Score   float64
}

type SearchMode string

const (
	ModeHybrid       SearchMode = "hybrid"
	ModeSemanticOnly SearchMode = "semantic_only"
	ModeLexicalOnly  SearchMode = "lexical_only"
)

type SearchOptions struct {
	TopK          int
	Alpha         *float64
	Rerank        bool
	ExpandContext bool
	Language      string
	Filter        SearchFilter
}

type RankedResult struct {
	Chunk                Chunk    `json:"chunk"`
	FusedScore           float64  `json:"fused_score"`
	RerankScore          *float64 `json:"rerank_score,omitempty"`
	PrevContent          string   `json:"prev_content,omitempty"`
	NextContent          string   `json:"next_content,omitempty"`
	ResolvedFromChildIDs []string `json:"resolved_from_child_ids,omitempty"`
}

// AdjacentContent carries the ordinal-neighbour payload attached during
// context expansion. Either side may be empty at document boundaries.
type AdjacentContent struct {
	Prev string
	Next string
}

type SearchResult struct {
	Results  []RankedResult `json:"results"`
	Mode     SearchMode     `json:"mode"`
	Reranked bool           `json:"reranked"`
	// Alpha and AlphaRule record the fusion weight that was actually used
	// and the rule that chose it, for diagnostics.
	Alpha     float64 `json:"alpha"`
	AlphaRule string  `json:"alpha_rule"`
}
