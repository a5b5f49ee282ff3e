package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/historiqa/corpusqa/internal/promptcache"
)

func TestCacheStatsAndClear(t *testing.T) {
	cache := promptcache.New(promptcache.Config{
		Enabled:      true,
		CacheSystem:  true,
		CacheContext: true,
		TTL:          time.Minute,
	}, func(systemPrompt, context string) string {
		return systemPrompt + context
	})
	cache.BuildOptimizedPrompt("system", "context", "google", "gemini-1.5-pro")

	d := &Dependencies{PromptCache: cache}

	rec := httptest.NewRecorder()
	d.cacheStatsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.cacheClearHandler(rec, httptest.NewRequest(http.MethodPost, "/api/cache/clear", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", rec.Code)
	}

	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("totalEntries after clear = %d, want 0", stats.TotalEntries)
	}
}
