package tracing

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	spanID    string
	traceID   string
	createdAt time.Time
}

// MemoryRegistry is the embedded, single-process span registry used in
// development: a local table indexed by (session_id, qa_id), mirroring
// the indexes a file-backed table would have on session_id, qa_id, and
// trace_id, but held in memory. Expired entries are skipped on access;
// they are never removed from the maps.
type MemoryRegistry struct {
	mu       sync.RWMutex
	bySession map[string]map[string]memoryEntry // session_id -> qa_id -> entry
	byTrace   map[string]memoryEntry
}

// NewMemoryRegistry constructs an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		bySession: make(map[string]map[string]memoryEntry),
		byTrace:   make(map[string]memoryEntry),
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, sessionID, qaID, spanID, traceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := memoryEntry{spanID: spanID, traceID: traceID, createdAt: time.Now()}
	if _, ok := r.bySession[sessionID]; !ok {
		r.bySession[sessionID] = make(map[string]memoryEntry)
	}
	r.bySession[sessionID][qaID] = entry
	if traceID != "" {
		r.byTrace[traceID] = entry
	}
	return nil
}

func (r *MemoryRegistry) RegisterRoot(ctx context.Context, sessionID, spanID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bySession[sessionID]; !ok {
		r.bySession[sessionID] = make(map[string]memoryEntry)
	}
	if _, exists := r.bySession[sessionID][RootQAID]; exists {
		return nil // don't overwrite an existing root
	}
	r.bySession[sessionID][RootQAID] = memoryEntry{spanID: spanID, createdAt: time.Now()}
	return nil
}

func (r *MemoryRegistry) Find(ctx context.Context, sessionID, qaID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.bySession[sessionID]
	if !ok {
		return "", false, nil
	}
	entry, ok := session[qaID]
	if !ok || r.expired(entry) {
		return "", false, nil
	}
	return entry.spanID, true, nil
}

func (r *MemoryRegistry) FindByTrace(ctx context.Context, traceID string) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byTrace[traceID]
	if !ok || r.expired(entry) {
		return "", false, nil
	}
	return entry.spanID, true, nil
}

func (r *MemoryRegistry) FindRoot(ctx context.Context, sessionID string) (string, bool, error) {
	return r.Find(ctx, sessionID, RootQAID)
}

func (r *MemoryRegistry) List(ctx context.Context, sessionID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.bySession[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]Record, 0, len(session))
	for qaID, entry := range session {
		if r.expired(entry) {
			continue
		}
		out = append(out, Record{SessionID: sessionID, QAID: qaID, SpanID: entry.spanID, TraceID: entry.traceID, CreatedAt: entry.createdAt})
	}
	return out, nil
}

func (r *MemoryRegistry) expired(e memoryEntry) bool {
	return time.Since(e.createdAt) > TTL
}
