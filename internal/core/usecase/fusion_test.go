package usecase

import (
	"math"
	"reflect"
	"testing"

	"github.com/kirillkom/docqa-engine/internal/core/domain"
)

func hitsOf(ids ...string) []domain.ChannelHit {
	out := make([]domain.ChannelHit, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.ChannelHit{ChunkID: id, Score: 1.0 - float64(i)*0.1})
	}
	return out
}

func TestFuseReciprocalRankWorkedExample(t *testing.T) {
	// Semantic [A,B,C], lexical [D,A,F], alpha=0.3, k=60.
	semantic := hitsOf("A", "B", "C")
	lexical := hitsOf("D", "A", "F")

	fused := fuseReciprocalRank(semantic, lexical, 0.3, 60)
	if len(fused) != 5 {
		t.Fatalf("expected 5 fused candidates, got %d", len(fused))
	}

	scores := make(map[string]float64, len(fused))
	for _, hit := range fused {
		scores[hit.ChunkID] = hit.Score
	}

	wantA := 0.3/61.0 + 0.7/62.0
	if math.Abs(scores["A"]-wantA) > 1e-12 {
		t.Fatalf("expected score(A)=%.6f, got %.6f", wantA, scores["A"])
	}
	// D is absent from the semantic list (len 3), so its semantic rank is 4.
	wantD := 0.3/64.0 + 0.7/61.0
	if math.Abs(scores["D"]-wantD) > 1e-12 {
		t.Fatalf("expected score(D)=%.6f, got %.6f", wantD, scores["D"])
	}
	if fused[0].ChunkID != "A" {
		t.Fatalf("expected A to outrank D, got first=%s", fused[0].ChunkID)
	}
}

func TestFuseReciprocalRankDeterministic(t *testing.T) {
	semantic := hitsOf("c1", "c2", "c3", "c4")
	lexical := hitsOf("c3", "c5", "c1")

	first := fuseReciprocalRank(semantic, lexical, 0.5, 60)
	for i := 0; i < 20; i++ {
		again := fuseReciprocalRank(semantic, lexical, 0.5, 60)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("fusion is not deterministic: run %d gave %v, want %v", i, again, first)
		}
	}
}

func TestFuseReciprocalRankAbsenceNeverRewarded(t *testing.T) {
	// "only" appears solely in the semantic channel at rank 1; "both"
	// appears at semantic rank 1 of its own run plus the worst lexical
	// rank. Presence in both lists must always win.
	onlySemantic := fuseReciprocalRank(hitsOf("only"), hitsOf("x", "y", "z"), 0.5, 60)
	bothLists := fuseReciprocalRank(hitsOf("both"), hitsOf("x", "y", "both"), 0.5, 60)

	var onlyScore, bothScore float64
	for _, hit := range onlySemantic {
		if hit.ChunkID == "only" {
			onlyScore = hit.Score
		}
	}
	for _, hit := range bothLists {
		if hit.ChunkID == "both" {
			bothScore = hit.Score
		}
	}
	if onlyScore >= bothScore {
		t.Fatalf("single-channel hit %.6f must score below dual-channel hit %.6f", onlyScore, bothScore)
	}
}

func TestFuseReciprocalRankTieBreakByChunkID(t *testing.T) {
	fused := fuseReciprocalRank(hitsOf("chunk-b"), hitsOf("chunk-a"), 0.5, 60)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].ChunkID != "chunk-a" {
		t.Fatalf("expected tie broken by ascending chunk id, got first=%s", fused[0].ChunkID)
	}
}

func TestFuseReciprocalRankEmptyChannels(t *testing.T) {
	if got := fuseReciprocalRank(nil, nil, 0.5, 60); len(got) != 0 {
		t.Fatalf("expected empty fusion output, got %v", got)
	}

	fused := fuseReciprocalRank(nil, hitsOf("a", "b"), 0, 60)
	if len(fused) != 2 || fused[0].ChunkID != "a" {
		t.Fatalf("expected lexical-only ordering preserved, got %v", fused)
	}
}
