// Package config resolves the server's configuration in layers: code
// defaults, then process environment, then one target-profile file keyed by
// TEST_TARGET. Later layers win. The result is an immutable snapshot handed
// to every component at startup; there is no global mutable config state.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RetrieverConfig is the nested bundle of retrieval-tuning knobs exposed
// through the read-only config snapshot.
type RetrieverConfig struct {
	EmbeddingModel     string
	RetrieverModule    string
	SearchType         string // "similarity" | "hybrid"
	SearchK            int
	ScoreThreshold     float64
	CitationLimit      int
	LargeRetrievalSize int
	ChunkSize          int
	ChunkOverlap       int
	Pooling            string
	RequestTimeout     time.Duration
	ConnectTimeout     time.Duration
}

// Config is the fully resolved, read-only configuration snapshot.
type Config struct {
	Environment string
	Port        int

	Retriever RetrieverConfig

	LLMProvider          string
	LLMModel             string
	LLMMaxConcurrent     int
	LLMMaxResponseChars  int
	LLMMaxResponseTokens int

	ChromaPersistDirectory string
	ChromaCollectionName   string

	RateLimitPerMinute int
	CORSOrigins        []string
	FrontendURL        string

	RedisURL      string
	RedisPassword string

	PromptCachingEnabled bool
	PromptCacheSystem    bool
	PromptCacheContext   bool
	PromptCacheTTL       time.Duration

	GoogleCloudProject string
	VertexAILocation   string
}

// Load resolves configuration from defaults, environment, and (if
// TEST_TARGET is set and the file exists) a target-profile file. Missing
// required keys (RETRIEVER_MODULE, EMBEDDING_MODEL) are fatal; there are no
// silent defaults for them.
func Load() (*Config, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		return nil, fmt.Errorf("config.Load: ENVIRONMENT is required")
	}

	retrieverModule := os.Getenv("RETRIEVER_MODULE")
	if retrieverModule == "" {
		return nil, fmt.Errorf("config.Load: RETRIEVER_MODULE is required")
	}
	embeddingModel := os.Getenv("EMBEDDING_MODEL")
	if embeddingModel == "" {
		return nil, fmt.Errorf("config.Load: EMBEDDING_MODEL is required")
	}

	cfg := &Config{
		Environment: env,
		Port:        envInt("PORT", 8080),

		Retriever: RetrieverConfig{
			EmbeddingModel:     embeddingModel,
			RetrieverModule:    retrieverModule,
			SearchType:         envStr("SEARCH_TYPE", "hybrid"),
			SearchK:            envInt("SEARCH_K", 5),
			ScoreThreshold:     envFloat("SEARCH_SCORE_THRESHOLD", 0.35),
			CitationLimit:      envInt("CITATION_LIMIT", 10),
			LargeRetrievalSize: envInt("LARGE_RETRIEVAL_SIZE", 100),
			ChunkSize:          envInt("CHUNK_SIZE", 768),
			ChunkOverlap:       envInt("CHUNK_OVERLAP", 20),
			Pooling:            envStr("POOLING", "mean"),
			RequestTimeout:     envDuration("RETRIEVER_REQUEST_TIMEOUT", 30*time.Second),
			ConnectTimeout:     envDuration("RETRIEVER_CONNECT_TIMEOUT", 10*time.Second),
		},

		LLMProvider:          envStr("LLM_PROVIDER", "google"),
		LLMModel:             envStr("LLM_MODEL", "gemini-3-pro-preview"),
		LLMMaxConcurrent:     envInt("LLM_MAX_CONCURRENT", 10),
		LLMMaxResponseChars:  envInt("LLM_MAX_RESPONSE_CHARS", 20000),
		LLMMaxResponseTokens: envInt("LLM_MAX_RESPONSE_TOKENS", 4096),

		ChromaPersistDirectory: envStr("CHROMA_PERSIST_DIRECTORY", "./chroma"),
		ChromaCollectionName:   envStr("CHROMA_COLLECTION_NAME", "default"),

		RateLimitPerMinute: envInt("RATE_LIMIT_PER_MINUTE", 240),
		CORSOrigins:        splitCSV(envStr("CORS_ORIGINS", "http://localhost:3000")),
		FrontendURL:        envStr("FRONTEND_URL", "http://localhost:3000"),

		RedisURL:      envStr("REDIS_URL", "redis://localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		PromptCachingEnabled: envBool("PROMPT_CACHING_ENABLED", true),
		PromptCacheSystem:    envBool("PROMPT_CACHE_SYSTEM", true),
		PromptCacheContext:   envBool("PROMPT_CACHE_CONTEXT", true),
		PromptCacheTTL:       envTTLString("PROMPT_CACHE_TTL", 5*time.Minute),

		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		VertexAILocation:   envStr("VERTEX_AI_LOCATION", "global"),
	}

	if cfg.Environment != "development" && os.Getenv("REDIS_URL") == "" {
		return nil, fmt.Errorf("config.Load: REDIS_URL is required in %s environment", cfg.Environment)
	}

	if profile := os.Getenv("TEST_TARGET"); profile != "" {
		if err := applyTargetProfile(cfg, profile); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}

	return cfg, nil
}

// applyTargetProfile overlays a `KEY = value` profile file on top of cfg.
// A configured TEST_TARGET whose file does not exist is not an error:
// profiles are opt-in overlays, not required inputs.
func applyTargetProfile(cfg *Config, testTarget string) error {
	path := fmt.Sprintf("./config/targets/%s.profile", testTarget)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open target profile: %w", err)
	}
	defer f.Close()

	kv := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		kv[key] = val
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read target profile: %w", err)
	}

	assignProfile(cfg, kv)
	return nil
}

// assignProfile performs the typed fixed-mapping assignment of the
// target-profile keys SEARCH_K, CITATION_LIMIT, SEARCH_SCORE_THRESHOLD,
// CHUNK_SIZE, CHUNK_OVERLAP, LARGE_RETRIEVAL_SIZE_ALL /
// LARGE_RETRIEVAL_SIZE, LLM_PROVIDER, LLM_MODEL, POOLING and INDEX_NAME
// (into ChromaCollectionName). Any other key, ALGORITHM included, is
// ignored.
func assignProfile(cfg *Config, kv map[string]string) {
	if v, ok := kv["SEARCH_K"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retriever.SearchK = n
		}
	}
	if v, ok := kv["CITATION_LIMIT"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retriever.CitationLimit = n
		}
	}
	if v, ok := kv["SEARCH_SCORE_THRESHOLD"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Retriever.ScoreThreshold = f
		}
	}
	if v, ok := kv["CHUNK_SIZE"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retriever.ChunkSize = n
		}
	}
	if v, ok := kv["CHUNK_OVERLAP"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retriever.ChunkOverlap = n
		}
	}
	for _, key := range []string{"LARGE_RETRIEVAL_SIZE_ALL", "LARGE_RETRIEVAL_SIZE"} {
		if v, ok := kv[key]; ok {
			if n, err := strconv.Atoi(v); err == nil {
				cfg.Retriever.LargeRetrievalSize = n
			}
		}
	}
	if v, ok := kv["LLM_PROVIDER"]; ok {
		cfg.LLMProvider = v
	}
	if v, ok := kv["LLM_MODEL"]; ok {
		cfg.LLMModel = v
	}
	if v, ok := kv["POOLING"]; ok {
		cfg.Retriever.Pooling = v
	}
	if v, ok := kv["INDEX_NAME"]; ok {
		cfg.ChromaCollectionName = v
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// envTTLString parses the "5m"/"2h" style TTL strings used throughout the
// prompt cache and span registry contracts.
func envTTLString(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return parseTTLString(v, fallback)
}

func parseTTLString(v string, fallback time.Duration) time.Duration {
	switch {
	case strings.HasSuffix(v, "m"):
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "m")); err == nil {
			return time.Duration(n) * time.Minute
		}
	case strings.HasSuffix(v, "h"):
		if n, err := strconv.Atoi(strings.TrimSuffix(v, "h")); err == nil {
			return time.Duration(n) * time.Hour
		}
	}
	return fallback
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
