// Package retriever implements the hybrid dense+lexical document retrieval
// component: capability-scoped filter construction, similarity and hybrid
// (RRF-fused) search modes, corpus balancing, and the accelerator
// device-fallback and retry policies around the embedding call.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/historiqa/corpusqa/internal/model"
)

// Embedder turns query text into a dense vector. Implementations wrap the
// configured embedding model (local or remote).
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DenseSearcher runs a nearest-neighbor search over the vector store.
type DenseSearcher interface {
	SearchSimilar(ctx context.Context, queryEmbedding []float32, n int, filter Filter) ([]model.Document, error)
}

// LexicalSearcher runs a BM25 (or equivalent full-text) search over the
// lexical sidecar index, and can materialize full documents by ID for
// fusion results that only carry IDs and ranks.
type LexicalSearcher interface {
	SearchBM25(ctx context.Context, query string, n int) ([]model.Document, error)
	FetchByID(ctx context.Context, ids []string) (map[string]model.Document, error)
}

// Reranker reorders a candidate set against the query. Used directly by
// corpus balancing, which must rank within each corpus before
// concatenating; the generic single-corpus path leaves reranking to the
// caller (C4).
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []model.RankedDocument) ([]model.RankedDocument, error)
}

// Retriever is one corpus-specific retrieval implementation (e.g. Darwin
// letters or Hansard entries) built from shared dense/lexical/embedding
// dependencies plus its declared Capabilities.
type Retriever struct {
	Name         string
	Capabilities Capabilities

	embedder Embedder
	dense    DenseSearcher
	lexical  LexicalSearcher // nil when no BM25 sidecar is loaded
	reranker Reranker
}

// Invoke is the public retrieval operation: query, k, and capability-scoped
// filters in, an ordered list of documents out.
func (r *Retriever) Invoke(ctx context.Context, req model.RetrievalRequest) ([]model.RankedDocument, error) {
	if req.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrInvalidInput, req.K)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}

	filter, err := BuildFilter(req, r.Capabilities)
	if err != nil {
		return nil, err
	}

	if filter.Corpus == "" && r.Capabilities.CorpusFiltering && len(r.Capabilities.CorpusOptions) > 0 &&
		(req.CorpusFilter == "" || req.CorpusFilter == model.CorpusAll) {
		return r.invokeBalanced(ctx, req, req.K)
	}

	return r.invokeSingle(ctx, req.Query, filter, req.K)
}

// invokeSingle runs one retrieval pass (dense-only or hybrid, depending on
// whether a lexical sidecar is configured) against a single filter.
func (r *Retriever) invokeSingle(ctx context.Context, query string, filter Filter, k int) ([]model.RankedDocument, error) {
	if r.lexical == nil {
		return r.similaritySearch(ctx, query, filter, k)
	}
	return r.hybridSearch(ctx, query, filter, k)
}

func (r *Retriever) similaritySearch(ctx context.Context, query string, filter Filter, k int) ([]model.RankedDocument, error) {
	embedding, err := r.embedWithFallback(ctx, query)
	if err != nil {
		return nil, err
	}

	docs, err := r.dense.SearchSimilar(ctx, embedding, k, filter)
	if err != nil {
		return nil, classifyTransport(err)
	}

	out := make([]model.RankedDocument, len(docs))
	for i, d := range docs {
		out[i] = model.RankedDocument{Document: d}
	}
	return out, nil
}

func (r *Retriever) hybridSearch(ctx context.Context, query string, filter Filter, k int) ([]model.RankedDocument, error) {
	n := k * 10
	if n < 100 {
		n = 100
	}

	embedding, err := r.embedWithFallback(ctx, query)
	if err != nil {
		return nil, err
	}

	dense, err := r.dense.SearchSimilar(ctx, embedding, n, filter)
	if err != nil {
		return nil, classifyTransport(err)
	}

	lexical, err := r.lexical.SearchBM25(ctx, query, n)
	if err != nil {
		return nil, classifyTransport(err)
	}

	fused := reciprocalRankFusion(dense, lexical)
	if len(fused) > k {
		fused = fused[:k]
	}

	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ID
	}
	materialized, err := r.lexical.FetchByID(ctx, ids)
	if err != nil {
		return nil, classifyTransport(err)
	}

	out := make([]model.RankedDocument, 0, len(fused))
	for _, f := range fused {
		doc, ok := materialized[f.ID]
		if !ok {
			continue
		}
		if !filter.Matches(doc) {
			continue
		}
		out = append(out, model.RankedDocument{Document: doc, RRFScore: f.RRFScore})
	}
	return out, nil
}

// invokeBalanced partitions retrieval across each enumerated corpus so
// representation in the final result set doesn't depend purely on
// absolute score magnitudes between corpora of different size or
// character.
func (r *Retriever) invokeBalanced(ctx context.Context, req model.RetrievalRequest, k int) ([]model.RankedDocument, error) {
	corpora := r.Capabilities.CorpusOptions
	perCorpus := (k + len(corpora) - 1) / len(corpora)

	out := make([]model.RankedDocument, 0, k)
	for _, corpus := range corpora {
		filter, err := BuildFilter(model.RetrievalRequest{
			Query:            req.Query,
			CorpusFilter:     corpus,
			DirectionFilter:  req.DirectionFilter,
			TimePeriodFilter: req.TimePeriodFilter,
		}, r.Capabilities)
		if err != nil {
			return nil, err
		}

		candidates, err := r.invokeSingle(ctx, req.Query, filter, perCorpus)
		if err != nil {
			return nil, err
		}

		if r.reranker != nil {
			candidates, err = r.reranker.Rerank(ctx, req.Query, candidates)
			if err != nil {
				return nil, err
			}
		}

		out = append(out, candidates...)
	}

	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// embedWithFallback embeds the query through withRetry. Device fallback
// applies when r.embedder was built by NewDeviceFallbackEmbedder.
func (r *Retriever) embedWithFallback(ctx context.Context, query string) ([]float32, error) {
	vectors, err := withRetry(ctx, "retriever.embed", func(ctx context.Context) ([][]float32, error) {
		return r.embedder.Embed(ctx, []string{query})
	})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("retriever: embedder returned no vectors")
	}
	return vectors[0], nil
}

func classifyTransport(err error) error {
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// sortByRerankDesc orders docs by RRF score, highest first, keeping the
// existing order among equal scores. Nothing in this module calls it.
func sortByRerankDesc(docs []model.RankedDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].RRFScore > docs[j].RRFScore
	})
}
