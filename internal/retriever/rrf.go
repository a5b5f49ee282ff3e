package retriever

import (
	"sort"

	"github.com/historiqa/corpusqa/internal/model"
)

// rrfK is the Reciprocal Rank Fusion smoothing constant. Standard value
// from the original literature; also what the Python hybrid_search module
// uses.
const rrfK = 60

// rrfAbsentRank is the rank used for a document that appears in one
// ranked list but not the other. It must be large enough that its
// contribution to the fused score is negligible without being so large it
// overflows the float computation.
const rrfAbsentRank = 1_000_000

// reciprocalRankFusion merges two rank-ordered document lists (dense
// similarity search and lexical/BM25 search) into a single score per
// document ID. Rank is 0-based: the top result of each list contributes
// 1/(rrfK+0), the second 1/(rrfK+1), and so on. A document missing from a
// list contributes 1/(rrfK+rrfAbsentRank) for that list instead of zero,
// matching rrf_merge's treatment of partial overlap.
func reciprocalRankFusion(dense, lexical []model.Document) []model.RankedDocument {
	denseRank := rankIndex(dense)
	lexicalRank := rankIndex(lexical)

	byID := make(map[string]model.Document)
	for _, d := range dense {
		byID[d.ID] = d
	}
	for _, d := range lexical {
		if _, ok := byID[d.ID]; !ok {
			byID[d.ID] = d
		}
	}

	scored := make([]model.RankedDocument, 0, len(byID))
	for id, doc := range byID {
		dr, ok := denseRank[id]
		if !ok {
			dr = rrfAbsentRank
		}
		lr, ok := lexicalRank[id]
		if !ok {
			lr = rrfAbsentRank
		}
		score := 1.0/float64(rrfK+dr) + 1.0/float64(rrfK+lr)
		scored = append(scored, model.RankedDocument{Document: doc, RRFScore: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RRFScore > scored[j].RRFScore
	})
	return scored
}

func rankIndex(docs []model.Document) map[string]int {
	idx := make(map[string]int, len(docs))
	for i, d := range docs {
		if _, ok := idx[d.ID]; !ok {
			idx[d.ID] = i
		}
	}
	return idx
}
