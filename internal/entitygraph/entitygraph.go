// Package entitygraph provides optional co-occurrence enrichment for
// citations: given a TEI entity name drawn from a document's metadata, it
// looks up other entities that appear alongside it across the corpus, via
// a small correspondence graph in Neo4j. This is additive and optional —
// the citation aggregator already renders the entities attached to the
// representative chunk (internal/rerank/citations.go); this package only
// adds "also seen with" context when a graph is configured.
package entitygraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Enricher looks up entities that co-occur with the given one across the
// correspondence graph.
type Enricher interface {
	CoOccurring(ctx context.Context, entity string, limit int) ([]string, error)
}

// Graph is a Neo4j-backed Enricher. Nodes are (:Entity {name}), edges are
// (:Entity)-[:MENTIONED_WITH]-(:Entity), one edge per document the two
// entities both appear in.
type Graph struct {
	driver neo4j.DriverWithContext
}

// New connects to a Neo4j instance at uri using basic auth. Construction
// fails fast if the graph is unreachable, matching this repo's other
// backing-store constructors.
func New(ctx context.Context, uri, username, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("entitygraph.New: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("entitygraph.New: verify connectivity: %w", err)
	}
	return &Graph{driver: driver}, nil
}

// Close releases the underlying driver's connection pool.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

const coOccurringQuery = `
MATCH (a:Entity {name: $name})-[:MENTIONED_WITH]-(b:Entity)
RETURN DISTINCT b.name AS name
LIMIT $limit`

// CoOccurring returns up to limit entity names that appear in at least one
// document alongside entity. An entity with no recorded co-occurrences
// returns an empty slice, not an error.
func (g *Graph) CoOccurring(ctx context.Context, entity string, limit int) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, coOccurringQuery, map[string]any{"name": entity, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("entitygraph.CoOccurring: %w", err)
	}

	var names []string
	for result.Next(ctx) {
		record := result.Record()
		if v, ok := record.Get("name"); ok {
			if s, ok := v.(string); ok {
				names = append(names, s)
			}
		}
	}
	return names, result.Err()
}
