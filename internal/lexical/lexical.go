// Package lexical implements the BM25 sidecar search backend: a read-only
// JSONL corpus loaded into an in-memory bleve index at startup, serving
// retriever.LexicalSearcher.
package lexical

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/historiqa/corpusqa/internal/model"
)

// sidecarRecord is one line of the BM25 sidecar file, per spec: id is
// "<parent_id>#<chunk_index>".
type sidecarRecord struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// Index is an in-memory bleve full-text index over the BM25 sidecar corpus.
// Construction is the only write path; all lookups afterward are read-only,
// matching the sidecar file's own read-only contract.
type Index struct {
	bleveIdx bleve.Index
	docs     map[string]model.Document
}

// Load builds an Index from a sidecar JSONL file. A missing file returns
// the os.Open error unwrapped, so callers can check os.IsNotExist and treat
// it as "no BM25 sidecar loaded": hybrid search then degrades to
// dense-only.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m := bleve.NewIndexMapping()
	configureMapping(m)

	idx, err := bleve.NewMemOnly(m)
	if err != nil {
		return nil, fmt.Errorf("lexical.Load: new index: %w", err)
	}

	docs := make(map[string]model.Document)
	batch := idx.NewBatch()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec sidecarRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("lexical.Load: malformed sidecar line: %w", err)
		}

		doc := recordToDocument(rec)
		docs[doc.ID] = doc

		if err := batch.Index(doc.ID, indexableFields{Text: doc.Text}); err != nil {
			return nil, fmt.Errorf("lexical.Load: batch index %q: %w", doc.ID, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lexical.Load: scan: %w", err)
	}

	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("lexical.Load: commit batch: %w", err)
	}

	return &Index{bleveIdx: idx, docs: docs}, nil
}

// indexableFields is the bleve document shape: only Text is analyzed, since
// filtering happens against the already-materialized model.Document's
// metadata (retriever.Filter.Matches), not through the index.
type indexableFields struct {
	Text string `json:"text"`
}

func configureMapping(m *mapping.IndexMappingImpl) {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = "en"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Text", textField)

	m.DefaultMapping = docMapping
}

func recordToDocument(rec sidecarRecord) model.Document {
	parentID, chunkIndex := splitSidecarID(rec.ID)
	return model.Document{
		ID:         rec.ID,
		ParentID:   parentID,
		ChunkIndex: chunkIndex,
		Text:       rec.Text,
		Metadata:   rec.Metadata,
	}
}

// SearchBM25 runs a relevance-ranked full-text query and materializes the
// top n matches from the in-memory document set.
func (idx *Index) SearchBM25(ctx context.Context, query string, n int) ([]model.Document, error) {
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = n

	result, err := idx.bleveIdx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lexical.SearchBM25: %w", err)
	}

	docs := make([]model.Document, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if doc, ok := idx.docs[hit.ID]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// splitSidecarID splits a sidecar "<parent_id>#<chunk_index>" id. A
// malformed id (no '#', or a non-numeric suffix) yields chunk index 0
// rather than an error, since the sidecar format is fixed and read-only.
func splitSidecarID(id string) (parentID string, chunkIndex int) {
	parent, suffix, ok := strings.Cut(id, "#")
	if !ok {
		return id, 0
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return parent, 0
	}
	return parent, n
}

// FetchByID materializes documents directly from the in-memory sidecar
// corpus, for fusion paths that carry only IDs and ranks.
func (idx *Index) FetchByID(ctx context.Context, ids []string) (map[string]model.Document, error) {
	out := make(map[string]model.Document, len(ids))
	for _, id := range ids {
		if doc, ok := idx.docs[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}
