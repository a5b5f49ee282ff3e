package tracing

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRegistry is the production span registry: a Redis hash per session
// (qa_id -> span_id) plus a direct trace_id -> span_id key, both with a
// 1-hour TTL refreshed on every write. Reads try Redis first and fall
// back to an in-memory mirror when Redis is momentarily unreachable.
type RedisRegistry struct {
	client *redis.Client
	mirror *MemoryRegistry
}

// NewRedisRegistry wraps an already-connected Redis client.
func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client, mirror: NewMemoryRegistry()}
}

func sessionHashKey(sessionID string) string {
	return fmt.Sprintf("spans:session:%s", sessionID)
}

func traceKey(traceID string) string {
	return fmt.Sprintf("spans:trace:%s", traceID)
}

func (r *RedisRegistry) Register(ctx context.Context, sessionID, qaID, spanID, traceID string) error {
	_ = r.mirror.Register(ctx, sessionID, qaID, spanID, traceID)

	key := sessionHashKey(sessionID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key, qaID, spanID)
	pipe.Expire(ctx, key, TTL)
	if traceID != "" {
		tk := traceKey(traceID)
		pipe.Set(ctx, tk, spanID, TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("tracing: register span in redis: %w", err)
	}
	return nil
}

func (r *RedisRegistry) RegisterRoot(ctx context.Context, sessionID, spanID string) error {
	key := sessionHashKey(sessionID)
	set, err := r.client.HSetNX(ctx, key, RootQAID, spanID).Result()
	if err != nil {
		_ = r.mirror.RegisterRoot(ctx, sessionID, spanID)
		return fmt.Errorf("tracing: register root span in redis: %w", err)
	}
	r.client.Expire(ctx, key, TTL)
	if set {
		_ = r.mirror.RegisterRoot(ctx, sessionID, spanID)
	}
	return nil
}

func (r *RedisRegistry) Find(ctx context.Context, sessionID, qaID string) (string, bool, error) {
	spanID, err := r.client.HGet(ctx, sessionHashKey(sessionID), qaID).Result()
	if err == nil {
		return spanID, true, nil
	}
	if err == redis.Nil {
		return "", false, nil
	}
	// Redis unreachable: fall back to the in-memory mirror.
	return r.mirror.Find(ctx, sessionID, qaID)
}

func (r *RedisRegistry) FindByTrace(ctx context.Context, traceID string) (string, bool, error) {
	spanID, err := r.client.Get(ctx, traceKey(traceID)).Result()
	if err == nil {
		return spanID, true, nil
	}
	if err == redis.Nil {
		return "", false, nil
	}
	return r.mirror.FindByTrace(ctx, traceID)
}

func (r *RedisRegistry) FindRoot(ctx context.Context, sessionID string) (string, bool, error) {
	return r.Find(ctx, sessionID, RootQAID)
}

func (r *RedisRegistry) List(ctx context.Context, sessionID string) ([]Record, error) {
	entries, err := r.client.HGetAll(ctx, sessionHashKey(sessionID)).Result()
	if err != nil {
		return r.mirror.List(ctx, sessionID)
	}
	out := make([]Record, 0, len(entries))
	for qaID, spanID := range entries {
		out = append(out, Record{SessionID: sessionID, QAID: qaID, SpanID: spanID})
	}
	return out, nil
}
