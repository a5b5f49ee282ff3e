package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/historiqa/corpusqa/internal/model"
	"github.com/historiqa/corpusqa/internal/retriever"
)

// DenseSearch implements retriever.DenseSearcher over a pgvector-backed
// table of document chunks, pushing the capability-scoped Filter down into
// the WHERE clause against the chunk's JSONB metadata column.
type DenseSearch struct {
	pool *pgxpool.Pool
}

// NewDenseSearch wraps a pool already holding the pgvector extension and
// the corpus_chunks table.
func NewDenseSearch(pool *pgxpool.Pool) *DenseSearch {
	return &DenseSearch{pool: pool}
}

// SearchSimilar runs a cosine-distance nearest-neighbor search, ordering
// by ascending distance (descending similarity) and returning at most n
// documents.
func (d *DenseSearch) SearchSimilar(ctx context.Context, queryEmbedding []float32, n int, filter retriever.Filter) ([]model.Document, error) {
	embedding := pgvector.NewVector(queryEmbedding)

	query := `
		SELECT id, parent_id, chunk_index, text, metadata
		FROM corpus_chunks
		WHERE 1 = 1`
	args := []any{embedding}
	args = appendFilterClauses(&query, args, filter)
	query += `
		ORDER BY embedding <=> $1::vector
		LIMIT ` + placeholder(len(args)+1)
	args = append(args, n)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorstore.SearchSimilar: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanChunkRow(rows)
		if err != nil {
			return nil, fmt.Errorf("vectorstore.SearchSimilar: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunkRow(rows rowScanner) (model.Document, error) {
	var doc model.Document
	var metaJSON []byte
	if err := rows.Scan(&doc.ID, &doc.ParentID, &doc.ChunkIndex, &doc.Text, &metaJSON); err != nil {
		return model.Document{}, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
			return model.Document{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return doc, nil
}

// appendFilterClauses appends the filter's WHERE predicates to query and
// returns the extended args slice; placeholders start after len(args).
func appendFilterClauses(query *string, args []any, filter retriever.Filter) []any {
	if filter.Corpus != "" {
		args = append(args, filter.Corpus)
		*query += fmt.Sprintf(" AND metadata->>'corpus' = $%d", len(args))
	}
	switch filter.Direction {
	case "sent":
		*query += " AND metadata->>'sender_name' IS NOT NULL AND metadata->>'sender_name' != ''"
	case "received":
		*query += " AND metadata->>'recipient_name' IS NOT NULL AND metadata->>'recipient_name' != ''"
	}
	if filter.HasYearEquals {
		args = append(args, filter.YearEquals)
		*query += fmt.Sprintf(" AND (metadata->>'year')::int = $%d", len(args))
	}
	if filter.HasYearRange {
		args = append(args, filter.YearFrom, filter.YearTo)
		*query += fmt.Sprintf(" AND (metadata->>'year')::int BETWEEN $%d AND $%d", len(args)-1, len(args))
	}
	return args
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
