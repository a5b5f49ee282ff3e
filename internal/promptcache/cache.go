// Package promptcache caches fully-assembled system+context prompts keyed
// by their content and target provider/model, so repeated questions against
// the same document context are recognised as hits and present the
// provider's own prompt caching with a stable prefix.
package promptcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/historiqa/corpusqa/internal/model"
)

// Config controls which parts of a prompt are eligible for caching.
type Config struct {
	Enabled       bool
	CacheSystem   bool
	CacheContext  bool
	TTL           time.Duration
}

// BuildFunc assembles the final prompt text from its constituent parts on
// a cache miss.
type BuildFunc func(systemPrompt, context string) string

// Cache is a process-wide, TTL-expiring cache of assembled prompts. Expiry
// is sliding: each access resets the TTL window from LastUsed, not
// CreatedAt, so a prompt in continuous use never expires.
type Cache struct {
	cfg   Config
	build BuildFunc

	mu      sync.Mutex
	entries map[string]*model.PromptCacheEntry
}

// New constructs a Cache. build assembles the returned prompt on every
// call, hit or miss.
func New(cfg Config, build BuildFunc) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &Cache{
		cfg:     cfg,
		build:   build,
		entries: make(map[string]*model.PromptCacheEntry),
	}
}

// OptimizationInfo describes how BuildOptimizedPrompt resolved the call,
// for logging/telemetry.
type OptimizationInfo struct {
	CacheHit     bool   `json:"cacheHit"`
	CacheKey     string `json:"cacheKey"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	HitCount     int    `json:"hitCount"`
}

// BuildOptimizedPrompt is the combined get-then-set operation: it returns
// a cached prompt on a hit, or assembles, caches, and returns a fresh one
// on a miss.
func (c *Cache) BuildOptimizedPrompt(systemPrompt, context, provider, modelName string) (string, OptimizationInfo) {
	c.cleanupExpired()

	keySystem, keyContext := "", ""
	if c.cfg.CacheSystem {
		keySystem = systemPrompt
	}
	if c.cfg.CacheContext {
		keyContext = context
	}
	key := cacheKey(keySystem, keyContext, provider, modelName)
	now := time.Now()

	if c.cfg.Enabled {
		c.mu.Lock()
		if entry, ok := c.entries[key]; ok && !entry.Expired(now) {
			entry.LastUsed = now
			entry.HitCount++
			hitCount := entry.HitCount
			prompt := c.build(systemPrompt, context)
			c.mu.Unlock()
			return prompt, OptimizationInfo{CacheHit: true, CacheKey: key, Provider: provider, Model: modelName, HitCount: hitCount}
		}
		c.mu.Unlock()
	}

	prompt := c.build(systemPrompt, context)

	if c.cfg.Enabled {
		c.mu.Lock()
		c.entries[key] = &model.PromptCacheEntry{
			Hash:         key,
			SystemPrompt: systemPrompt,
			Context:      context,
			CreatedAt:    now,
			LastUsed:     now,
			HitCount:     0,
			TTL:          c.cfg.TTL,
		}
		c.mu.Unlock()
	}

	return prompt, OptimizationInfo{CacheHit: false, CacheKey: key, Provider: provider, Model: modelName}
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*model.PromptCacheEntry)
}

// Stats summarizes current cache occupancy and the hit counts of the
// entries currently held, for the operator-facing diagnostics endpoint.
type Stats struct {
	Enabled      bool `json:"enabled"`
	CacheSystem  bool `json:"cacheSystem"`
	CacheContext bool `json:"cacheContext"`
	TotalEntries int  `json:"totalEntries"`
	TotalHits    int  `json:"totalHits"`
	TTLMinutes   int  `json:"ttlMinutes"`
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hits := 0
	for _, e := range c.entries {
		hits += e.HitCount
	}
	return Stats{
		Enabled:      c.cfg.Enabled,
		CacheSystem:  c.cfg.CacheSystem,
		CacheContext: c.cfg.CacheContext,
		TotalEntries: len(c.entries),
		TotalHits:    hits,
		TTLMinutes:   int(c.cfg.TTL / time.Minute),
	}
}

// cleanupExpired sweeps all entries on every access, mirroring the
// reference cache's O(n) eager-eviction policy: there is no background
// goroutine, since sweep cost only matters when the cache is actually
// being used.
func (c *Cache) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, k)
		}
	}
}

// cacheKey hashes the sorted-key JSON encoding of the cacheable inputs to
// a stable, fixed-length identifier.
func cacheKey(systemPrompt, context, provider, modelName string) string {
	payload := struct {
		SystemPrompt string `json:"system_prompt"`
		Context      string `json:"context"`
		Provider     string `json:"provider"`
		Model        string `json:"model"`
	}{
		SystemPrompt: systemPrompt,
		Context:      context,
		Provider:     strings.ToLower(provider),
		Model:        strings.ToLower(modelName),
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}
