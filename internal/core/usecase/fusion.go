package usecase

import (
	"sort"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

const defaultFusionK = 60

type fusedHit struct {
	ChunkID string
	Score   float64
}

// fuseReciprocalRank merges the two channel lists with alpha-weighted
// Reciprocal Rank Fusion. A chunk absent from one channel is treated as if
// it were ranked one position past the end of that channel's list, so a
// single-channel hit is never scored as a perfect rank on the other side.
//
// The function is pure: identical inputs give an identical ordering.
func fuseReciprocalRank(semantic, lexical []domain.ChannelHit, alpha float64, k int) []fusedHit {
	if k <= 0 {
		k = defaultFusionK
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}

	semanticRank := rankByChunkID(semantic)
	lexicalRank := rankByChunkID(lexical)
	absentSemantic := len(semantic) + 1
	absentLexical := len(lexical) + 1

	out := make([]fusedHit, 0, len(semanticRank)+len(lexicalRank))
	seen := make(map[string]struct{}, len(semanticRank)+len(lexicalRank))
	appendHits := func(hits []domain.ChannelHit) {
		for _, hit := range hits {
			if _, ok := seen[hit.ChunkID]; ok {
				continue
			}
			seen[hit.ChunkID] = struct{}{}

			rankSem, inSem := semanticRank[hit.ChunkID]
			if !inSem {
				rankSem = absentSemantic
			}
			rankLex, inLex := lexicalRank[hit.ChunkID]
			if !inLex {
				rankLex = absentLexical
			}

			out = append(out, fusedHit{
				ChunkID: hit.ChunkID,
				Score:   alpha/float64(k+rankSem) + (1-alpha)/float64(k+rankLex),
			})
		}
	}

	appendHits(semantic)
	appendHits(lexical)

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	return out
}

func rankByChunkID(hits []domain.ChannelHit) map[string]int {
	out := make(map[string]int, len(hits))
	for i, hit := range hits {
		if _, ok := out[hit.ChunkID]; ok {
			continue
		}
		out[hit.ChunkID] = i + 1
	}
	return out
}
