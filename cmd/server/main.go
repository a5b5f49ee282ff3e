package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/historiqa/corpusqa/internal/config"
	"github.com/historiqa/corpusqa/internal/asyncqueue"
	"github.com/historiqa/corpusqa/internal/entitygraph"
	"github.com/historiqa/corpusqa/internal/gcpclient"
	"github.com/historiqa/corpusqa/internal/httpapi"
	"github.com/historiqa/corpusqa/internal/lexical"
	"github.com/historiqa/corpusqa/internal/llmadapter"
	"github.com/historiqa/corpusqa/internal/middleware"
	"github.com/historiqa/corpusqa/internal/orchestrator"
	"github.com/historiqa/corpusqa/internal/promptcache"
	"github.com/historiqa/corpusqa/internal/retriever"
	"github.com/historiqa/corpusqa/internal/rerank"
	"github.com/historiqa/corpusqa/internal/tracing"
	"github.com/historiqa/corpusqa/internal/vectorstore"
)

const Version = "0.1.0"

const defaultSystemPrompt = `You are a research assistant answering questions about historical ` +
	`parliamentary records and correspondence using only the supplied context documents. ` +
	`Cite the documents you draw on; if the context does not contain the answer, say so ` +
	`rather than speculating beyond the corpus.`

func buildSystemPrompt() string {
	if v := os.Getenv("SYSTEM_PROMPT"); v != "" {
		return v
	}
	return defaultSystemPrompt
}

// buildLLMAdapter constructs every provider backend that has the
// credentials to run in this environment, wiring the rest as nil per
// llmadapter.Config's "absent means unavailable" contract.
func buildLLMAdapter(cfg *config.Config) (*llmadapter.Adapter, error) {
	var llmCfg llmadapter.Config
	llmCfg.DefaultProvider = cfg.LLMProvider

	if backend, err := llmadapter.NewOpenAIBackend("OPENAI_API_KEY", ""); err == nil {
		llmCfg.OpenAI = backend
	}
	if backend, err := llmadapter.NewAnthropicBackend(); err == nil {
		llmCfg.Anthropic = backend
	}
	if backend, err := llmadapter.NewBedrockBackend(); err == nil {
		llmCfg.Bedrock = backend
	}
	if client, err := gcpclient.NewGenAIAdapter(context.Background(), cfg.GoogleCloudProject, cfg.VertexAILocation, cfg.LLMModel); err == nil {
		llmCfg.Google = llmadapter.NewGoogleBackend(client)
	}
	if baseURL := os.Getenv("LOCAL_RUNTIME_URL"); baseURL != "" {
		if backend, err := llmadapter.NewLocalRuntimeBackend(baseURL); err == nil {
			llmCfg.LocalRuntime = backend
		}
	}

	return llmadapter.New(llmCfg)
}

// buildLexical loads the BM25 sidecar if configured; a missing file
// degrades to dense-only search per spec, so this is never fatal.
func buildLexical() retriever.LexicalSearcher {
	path := os.Getenv("BM25_SIDECAR_PATH")
	if path == "" {
		return nil
	}
	idx, err := lexical.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("no BM25 sidecar found, hybrid search disabled", "path", path)
			return nil
		}
		slog.Warn("failed to load BM25 sidecar, hybrid search disabled", "path", path, "error", err)
		return nil
	}
	return idx
}

func buildQueue(ctx context.Context, cfg *config.Config) (*asyncqueue.Queue, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return asyncqueue.New(client), nil
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	embedderFn := func(ctx context.Context, modelName string) (vectorstore.Embedder, error) {
		return gcpclient.NewEmbeddingAdapter(ctx, cfg.GoogleCloudProject, cfg.VertexAILocation, modelName)
	}
	dbURL := func(collection, persistDir string) string {
		return os.Getenv("DATABASE_URL")
	}
	pool := vectorstore.NewPool(dbURL, embedderFn, 10, 30*time.Minute)
	defer pool.Stop()

	handle, err := pool.Handle(ctx, cfg.ChromaCollectionName, cfg.Retriever.EmbeddingModel, cfg.ChromaPersistDirectory)
	if err != nil {
		return fmt.Errorf("acquire vector store handle: %w", err)
	}
	embedder, err := pool.Embedding(ctx, cfg.Retriever.EmbeddingModel)
	if err != nil {
		return fmt.Errorf("acquire embedder: %w", err)
	}

	dense := vectorstore.NewDenseSearch(handle.Pool)
	lex := buildLexical()

	reranker := rerank.New(cfg.Retriever.LargeRetrievalSize)

	retrv, err := retriever.New(cfg.Retriever.RetrieverModule, retriever.Deps{
		Embedder: embedder,
		Dense:    dense,
		Lexical:  lex,
		Reranker: reranker,
	})
	if err != nil {
		return fmt.Errorf("build retriever: %w", err)
	}

	llm, err := buildLLMAdapter(cfg)
	if err != nil {
		return fmt.Errorf("build LLM adapter: %w", err)
	}

	var enricher orchestrator.EntityEnricher
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		graph, err := entitygraph.New(ctx, uri, os.Getenv("NEO4J_USERNAME"), os.Getenv("NEO4J_PASSWORD"))
		if err != nil {
			slog.Warn("entity graph unavailable, citations will not be enriched", "error", err)
		} else {
			defer graph.Close(context.Background())
			enricher = graph
		}
	}

	promptCache := promptcache.New(promptcache.Config{
		Enabled:      cfg.PromptCachingEnabled,
		CacheSystem:  cfg.PromptCacheSystem,
		CacheContext: cfg.PromptCacheContext,
		TTL:          cfg.PromptCacheTTL,
	}, func(systemPrompt, context string) string {
		return systemPrompt + "\n\n" + context
	})

	var registry tracing.SpanRegistry
	var queue *asyncqueue.Queue
	if cfg.Environment == "development" && os.Getenv("REDIS_URL") == "" {
		registry = tracing.NewMemoryRegistry()
	} else {
		q, err := buildQueue(ctx, cfg)
		if err != nil {
			return fmt.Errorf("build queue: %w", err)
		}
		queue = q
		opts, _ := redis.ParseURL(cfg.RedisURL)
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		registry = tracing.NewRedisRegistry(redis.NewClient(opts))
	}
	tracer := tracing.NewTracer(registry)

	orch := orchestrator.New(orchestrator.Config{
		Retriever:      retrv,
		Reranker:       reranker,
		PromptCache:    promptCache,
		LLM:            llm,
		Tracer:         tracer,
		EntityEnricher: enricher,
		SystemPrompt:  buildSystemPrompt(),
		MaxConcurrent: cfg.LLMMaxConcurrent,
		CitationLimit: cfg.Retriever.CitationLimit,
		DefaultModel:  cfg.LLMModel,
	})

	if queue != nil {
		worker := asyncqueue.NewWorker(queue, httpapi.NewProcessor(orch))
		go worker.Run(ctx)
	}

	metricsReg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(metricsReg)

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitPerMinute,
		Window:      time.Minute,
	})

	router := httpapi.New(&httpapi.Dependencies{
		Config:             cfg,
		Orchestrator:       orch,
		Retriever:          retrv,
		Queue:              queue,
		PromptCache:        promptCache,
		Tracer:             tracer,
		Metrics:            metrics,
		MetricsReg:         metricsReg,
		Version:            Version,
		GeneralRateLimiter: rateLimiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams hold the connection open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("corpusqa server starting", "version", Version, "port", cfg.Port, "module", cfg.Retriever.RetrieverModule)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal, shutting down gracefully")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
