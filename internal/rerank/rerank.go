package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

// DefaultMaxDocs is the cap applied when a caller doesn't specify one.
const DefaultMaxDocs = 10

// batchSize matches the reference implementation's cooperative-yield
// batching: scoring runs in chunks so a very large candidate set doesn't
// monopolize a goroutine.
const batchSize = 50

// Reranker scores and reorders retrieval candidates by lexical relevance
// to the query.
type Reranker struct {
	MaxDocs int
}

// New returns a Reranker that returns up to maxDocs results; maxDocs<=0
// falls back to DefaultMaxDocs.
func New(maxDocs int) *Reranker {
	if maxDocs <= 0 {
		maxDocs = DefaultMaxDocs
	}
	return &Reranker{MaxDocs: maxDocs}
}

// Rerank implements retriever.Reranker. An empty query returns the
// original order, truncated to MaxDocs; docs with no terms in common with
// the query still receive a (possibly zero) metadata-bonus-inclusive score.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []model.RankedDocument) ([]model.RankedDocument, error) {
	if len(docs) == 0 {
		return docs, nil
	}
	if strings.TrimSpace(query) == "" {
		if len(docs) > r.MaxDocs {
			return docs[:r.MaxDocs], nil
		}
		return docs, nil
	}

	terms := keywords(query)
	scored := make([]model.RankedDocument, len(docs))
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		for j := i; j < end; j++ {
			d := docs[j]
			d.RerankScore = relevanceScore(d.Document, query, terms)
			scored[j] = d
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankScore > scored[j].RerankScore
	})

	if len(scored) > r.MaxDocs {
		scored = scored[:r.MaxDocs]
	}
	return scored, nil
}
