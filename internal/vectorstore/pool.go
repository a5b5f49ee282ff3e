// Package vectorstore maintains the shared, process-wide handles to the
// persistent vector index and the embedding models retrieval depends on.
// Handles are expensive to construct and safe to share read-only across
// requests once built, so a single pool keyed by (collection, embedding
// model, persist directory) amortizes that cost and expires idle entries.
package vectorstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// Handle is a shared, read-only-after-construction index handle: a
// connection pool bound to one (collection, embedding model, persist
// directory) triple.
type Handle struct {
	Pool           *pgxpool.Pool
	Collection     string
	EmbeddingModel string
	PersistDir     string
}

type handleEntry struct {
	mu       sync.Mutex
	handle   *Handle
	err      error
	built    bool
	lastUsed time.Time
}

// Embedder is the shape of a constructed embedding model client. The pool
// does not know how embeddings are computed; it only owns the lifetime of
// the constructed client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type embedderEntry struct {
	mu       sync.Mutex
	embedder Embedder
	err      error
	built    bool
	lastUsed time.Time
}

// EmbedderFactory constructs an Embedder for a model name. Pool calls this
// at most once per model name; failures are surfaced to the caller and are
// not cached (so a transient failure does not poison future requests).
type EmbedderFactory func(ctx context.Context, modelName string) (Embedder, error)

// DatabaseURLResolver resolves a (collection, persistDir) pair to a
// Postgres connection string. In this deployment collection and persistDir
// both point at the same logical database; the resolver exists so tests
// can substitute a stub.
type DatabaseURLResolver func(collection, persistDir string) string

// Pool lazily constructs and shares vector-store handles and embedding
// models, expiring entries that have been idle past CleanupInterval.
type Pool struct {
	mu       sync.Mutex
	handles  map[string]*handleEntry
	embedders map[string]*embedderEntry

	dbURL      DatabaseURLResolver
	embedderFn EmbedderFactory
	maxConns   int

	cleanupInterval time.Duration
	stopCh          chan struct{}
}

// NewPool constructs a vector-store handle pool. cleanupInterval bounds
// both how often idle entries are swept and, per C2's LRU-style contract,
// how long an entry may sit idle before being dropped.
func NewPool(dbURL DatabaseURLResolver, embedderFn EmbedderFactory, maxConns int, cleanupInterval time.Duration) *Pool {
	if cleanupInterval <= 0 {
		cleanupInterval = 30 * time.Minute
	}
	p := &Pool{
		handles:         make(map[string]*handleEntry),
		embedders:       make(map[string]*embedderEntry),
		dbURL:           dbURL,
		embedderFn:      embedderFn,
		maxConns:        maxConns,
		cleanupInterval: cleanupInterval,
		stopCh:          make(chan struct{}),
	}
	go p.cleanup()
	return p
}

// Stop halts the background expiry goroutine and closes all pooled
// connection pools.
func (p *Pool) Stop() {
	close(p.stopCh)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.handles {
		if e.handle != nil {
			e.handle.Pool.Close()
		}
	}
}

func handleKey(collection, embeddingModel, persistDir string) string {
	return fmt.Sprintf("%s|%s|%s", collection, embeddingModel, persistDir)
}

// Handle returns the shared index handle for (collection, embeddingModel,
// persistDir), constructing it on first access. Construction failures are
// not retried by this layer; the caller decides whether to retry.
func (p *Pool) Handle(ctx context.Context, collection, embeddingModel, persistDir string) (*Handle, error) {
	key := handleKey(collection, embeddingModel, persistDir)

	p.mu.Lock()
	entry, ok := p.handles[key]
	if !ok {
		entry = &handleEntry{}
		p.handles[key] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		entry.lastUsed = time.Now()
		return entry.handle, entry.err
	}

	cfg, err := pgxpool.ParseConfig(p.dbURL(collection, persistDir))
	if err != nil {
		entry.err = fmt.Errorf("vectorstore.Handle: parse config: %w", err)
		return nil, entry.err
	}
	if p.maxConns > 0 {
		cfg.MaxConns = int32(p.maxConns)
	}
	cfg.AfterConnect = pgxvector.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		entry.err = fmt.Errorf("vectorstore.Handle: open pool: %w", err)
		return nil, entry.err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		entry.err = fmt.Errorf("vectorstore.Handle: ping: %w", err)
		return nil, entry.err
	}

	entry.handle = &Handle{
		Pool:           pool,
		Collection:     collection,
		EmbeddingModel: embeddingModel,
		PersistDir:     persistDir,
	}
	entry.built = true
	entry.err = nil
	entry.lastUsed = time.Now()
	return entry.handle, nil
}

// Embedding returns the shared embedder for modelName, constructing it on
// first access via the configured EmbedderFactory.
func (p *Pool) Embedding(ctx context.Context, modelName string) (Embedder, error) {
	p.mu.Lock()
	entry, ok := p.embedders[modelName]
	if !ok {
		entry = &embedderEntry{}
		p.embedders[modelName] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.built {
		entry.lastUsed = time.Now()
		return entry.embedder, entry.err
	}

	embedder, err := p.embedderFn(ctx, modelName)
	if err != nil {
		// Not cached: a transient construction failure should not
		// poison every subsequent call for this model name.
		return nil, fmt.Errorf("vectorstore.Embedding: %w", err)
	}

	entry.embedder = embedder
	entry.built = true
	entry.lastUsed = time.Now()
	return embedder, nil
}

// cleanup drops handle and embedder entries idle past cleanupInterval.
func (p *Pool) cleanup() {
	ticker := time.NewTicker(p.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-p.cleanupInterval)

			p.mu.Lock()
			for key, e := range p.handles {
				e.mu.Lock()
				idle := e.built && e.lastUsed.Before(cutoff)
				if idle {
					if e.handle != nil {
						e.handle.Pool.Close()
					}
					delete(p.handles, key)
				}
				e.mu.Unlock()
			}
			for key, e := range p.embedders {
				e.mu.Lock()
				idle := e.built && e.lastUsed.Before(cutoff)
				if idle {
					delete(p.embedders, key)
				}
				e.mu.Unlock()
			}
			p.mu.Unlock()
		}
	}
}
