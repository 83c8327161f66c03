package usecase

import "github.com/kirillkom/docqa-engine/internal/core/domain"

// hierarchyMode tags how one query's candidate set is structured. It is
// classified per query because flat and hierarchical document sets may
// coexist in one deployment.
type hierarchyMode string

const (
	hierarchyFlat   hierarchyMode = "flat"
	hierarchyNested hierarchyMode = "nested"
)

type resolvedCandidate struct {
	Chunk    domain.Chunk
	Score    float64
	ChildIDs []string
}

func classifyHierarchy(fused []fusedHit, chunks map[string]domain.Chunk) hierarchyMode {
	for _, hit := range fused {
		if chunks[hit.ChunkID].Level == domain.LevelChild {
			return hierarchyNested
		}
	}
	return hierarchyFlat
}

// missingParentIDs lists parents referenced by child candidates that are
// not yet present in the chunk map, so the caller can fetch them in one
// batch before resolution.
func missingParentIDs(fused []fusedHit, chunks map[string]domain.Chunk) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, hit := range fused {
		chunk, ok := chunks[hit.ChunkID]
		if !ok || chunk.Level != domain.LevelChild || chunk.ParentID == "" {
			continue
		}
		if _, have := chunks[chunk.ParentID]; have {
			continue
		}
		if _, dup := seen[chunk.ParentID]; dup {
			continue
		}
		seen[chunk.ParentID] = struct{}{}
		out = append(out, chunk.ParentID)
	}
	return out
}

// resolveCandidates promotes child hits to their parent chunks and
// deduplicates. The fused list arrives sorted best-first, so the first
// occurrence of any resulting chunk keeps the highest score; later
// occurrences only merge their contributing child ids. In flat mode the
// list passes through unchanged apart from dropping hits whose chunk
// record has gone missing.
func resolveCandidates(fused []fusedHit, chunks map[string]domain.Chunk) []resolvedCandidate {
	mode := classifyHierarchy(fused, chunks)

	out := make([]resolvedCandidate, 0, len(fused))
	index := make(map[string]int, len(fused))

	for _, hit := range fused {
		chunk, ok := chunks[hit.ChunkID]
		if !ok {
			continue
		}

		target := chunk
		var childID string
		if mode == hierarchyNested && chunk.Level == domain.LevelChild && chunk.ParentID != "" {
			if parent, ok := chunks[chunk.ParentID]; ok {
				target = parent
				childID = chunk.ID
			}
		}

		if at, ok := index[target.ID]; ok {
			if childID != "" {
				out[at].ChildIDs = appendUnique(out[at].ChildIDs, childID)
			}
			continue
		}

		candidate := resolvedCandidate{Chunk: target, Score: hit.Score}
		if childID != "" {
			candidate.ChildIDs = []string{childID}
		}
		index[target.ID] = len(out)
		out = append(out, candidate)
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
