package retriever

import (
	"math"
	"testing"

	"github.com/historiqa/corpusqa/internal/model"
)

func doc(id string) model.Document {
	return model.Document{ID: id, ParentID: id, Text: id}
}

func scoreOf(t *testing.T, scored []model.RankedDocument, id string) float64 {
	t.Helper()
	for _, s := range scored {
		if s.ID == id {
			return s.RRFScore
		}
	}
	t.Fatalf("document %q not found in fused results", id)
	return 0
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReciprocalRankFusion_S2(t *testing.T) {
	dense := []model.Document{doc("A"), doc("B"), doc("C")}
	lexical := []model.Document{doc("C"), doc("B"), doc("A")}

	scored := reciprocalRankFusion(dense, lexical)

	wantB := 1.0/61 + 1.0/61
	wantA := 1.0/60 + 1.0/62
	wantC := 1.0/62 + 1.0/60

	gotA := scoreOf(t, scored, "A")
	gotB := scoreOf(t, scored, "B")
	gotC := scoreOf(t, scored, "C")

	if !almostEqual(gotB, wantB) {
		t.Errorf("score(B) = %v, want %v", gotB, wantB)
	}
	if !almostEqual(gotA, wantA) {
		t.Errorf("score(A) = %v, want %v", gotA, wantA)
	}
	if !almostEqual(gotC, wantC) {
		t.Errorf("score(C) = %v, want %v", gotC, wantC)
	}

	if len(scored) != 3 || scored[2].ID != "B" {
		t.Errorf("expected B ranked last, got order %v", ids(scored))
	}
}

func TestReciprocalRankFusion_PartialOverlap(t *testing.T) {
	dense := []model.Document{doc("A"), doc("B")}
	lexical := []model.Document{doc("C")}

	scored := reciprocalRankFusion(dense, lexical)
	if len(scored) != 3 {
		t.Fatalf("expected 3 fused documents, got %d", len(scored))
	}

	gotA := scoreOf(t, scored, "A")
	wantA := 1.0/60 + 1.0/(60+rrfAbsentRank)
	if !almostEqual(gotA, wantA) {
		t.Errorf("score(A) = %v, want %v", gotA, wantA)
	}
}

func ids(scored []model.RankedDocument) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.ID
	}
	return out
}
