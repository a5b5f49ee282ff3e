// Package orchestrator drives one ask request through guardrail checking,
// retrieval, reranking, and generation, either streaming frames to an SSE
// writer or returning the assembled answer synchronously for the async
// worker and non-streaming query path. It is the one place the C7 state
// machine (Accepted -> GuardrailCheck -> Retrieving -> Reranking ->
// Generating -> StreamingToClient -> Completing -> Terminal) is wired end
// to end.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/historiqa/corpusqa/internal/model"
	"github.com/historiqa/corpusqa/internal/promptcache"
	"github.com/historiqa/corpusqa/internal/rerank"
	"github.com/historiqa/corpusqa/internal/sse"
	"github.com/historiqa/corpusqa/internal/tracing"
	"github.com/historiqa/corpusqa/internal/validate"
)

// Retriever is the retrieval stage's dependency surface; satisfied by
// *retriever.Retriever.
type Retriever interface {
	Invoke(ctx context.Context, req model.RetrievalRequest) ([]model.RankedDocument, error)
}

// Reranker is the reranking stage's dependency surface; satisfied by
// *rerank.Reranker.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []model.RankedDocument) ([]model.RankedDocument, error)
}

// LLM is the generation stage's dependency surface; satisfied by
// *llmadapter.Adapter.
type LLM interface {
	Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model, provider string) (<-chan string, <-chan error)
}

// ChatTurn and the prompt builders live in prompt.go.

// AskRequest is the normalized input to Ask/Stream, already validated for
// shape (not content) by the HTTP layer.
type AskRequest struct {
	Question         string
	CorpusFilter     string
	DirectionFilter  string
	TimePeriodFilter string
	ChatHistory      []ChatTurn
	SessionID        string
	QAID             string
	Provider         string
	Model            string
	K                int
}

// EntityEnricher augments a citation's entity list with co-occurring
// entities drawn from a correspondence graph; satisfied by
// *entitygraph.Graph. Optional: a nil EntityEnricher skips this step
// entirely.
type EntityEnricher interface {
	CoOccurring(ctx context.Context, entity string, limit int) ([]string, error)
}

// Orchestrator wires the retrieval, reranking, prompt-cache, LLM, and
// tracing dependencies together behind the C7 state machine.
type Orchestrator struct {
	retriever      Retriever
	reranker       Reranker
	promptCache    *promptcache.Cache
	llm            LLM
	tracer         *tracing.Tracer
	entityEnricher EntityEnricher
	sem            *semaphore

	systemPrompt    string
	citationLimit   int
	temperature     float64
	defaultModel    string
	spanUpdateEvery int
}

// Config bundles Orchestrator's dependencies and tuning knobs.
type Config struct {
	Retriever      Retriever
	Reranker       Reranker // nil disables the reranking stage
	PromptCache    *promptcache.Cache
	LLM            LLM
	Tracer         *tracing.Tracer
	EntityEnricher EntityEnricher // nil disables graph-based entity enrichment

	SystemPrompt    string
	MaxConcurrent   int
	CitationLimit   int
	Temperature     float64
	DefaultModel    string
	SpanUpdateEvery int // how often (in chunks) to refresh rolling span attributes; default 5
}

// New constructs an Orchestrator from cfg, applying tuning defaults.
func New(cfg Config) *Orchestrator {
	spanUpdateEvery := cfg.SpanUpdateEvery
	if spanUpdateEvery <= 0 {
		spanUpdateEvery = 5
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	return &Orchestrator{
		retriever:       cfg.Retriever,
		reranker:        cfg.Reranker,
		promptCache:     cfg.PromptCache,
		llm:             cfg.LLM,
		tracer:          cfg.Tracer,
		entityEnricher:  cfg.EntityEnricher,
		sem:             newSemaphore(cfg.MaxConcurrent),
		systemPrompt:    cfg.SystemPrompt,
		citationLimit:   cfg.CitationLimit,
		temperature:     temperature,
		defaultModel:    cfg.DefaultModel,
		spanUpdateEvery: spanUpdateEvery,
	}
}

func (o *Orchestrator) modelFor(req AskRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return o.defaultModel
}

// InFlight reports the number of generation slots currently occupied, for
// the /api/queue/stats and health diagnostics.
func (o *Orchestrator) InFlight() int {
	return o.sem.inFlight()
}

// Stream runs the full pipeline, forwarding chunks to w as they arrive and
// finishing with a references frame then a complete frame, or a sanitized
// error frame on failure. The returned error is non-nil on any failure
// (including client-disconnect cancellation) purely for caller-side
// logging; the SSE stream has already been terminated appropriately.
func (o *Orchestrator) Stream(ctx context.Context, req AskRequest, w *sse.Writer) error {
	onChunk := func(text string) error {
		return w.Chunk(sse.ChunkPayload{
			QAID:             req.QAID,
			ResponseComplete: false,
			Chunk:            sse.ChunkBody{Type: "text", Text: text},
			Timestamp:        time.Now(),
		})
	}

	answer, citations, err := o.execute(ctx, req, onChunk)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		slog.Error("orchestrator: ask stream failed", "error", err, "qaId", req.QAID)
		_ = w.Error(sse.ErrorPayload{
			QAID:      req.QAID,
			Message:   "An error occurred while processing your request",
			Timestamp: time.Now(),
		})
		return err
	}

	if err := w.References(sse.ReferencesPayload{QAID: req.QAID, Citations: citations, Timestamp: time.Now()}); err != nil {
		return err
	}
	return w.Complete(sse.CompletePayload{
		QAID:             req.QAID,
		ResponseComplete: true,
		ResponseText:     answer,
		Citations:        citations,
		Timestamp:        time.Now(),
	})
}

// Run executes the same pipeline synchronously without streaming, for the
// async worker and the non-streaming /query route.
func (o *Orchestrator) Run(ctx context.Context, req AskRequest) (string, []model.Citation, error) {
	return o.execute(ctx, req, nil)
}

// execute is the shared pipeline body. onChunk is nil for the non-streaming
// path; when non-nil, its error return (a failed SSE write, i.e. a
// disconnected client) aborts generation the same way an adapter error
// would.
func (o *Orchestrator) execute(ctx context.Context, req AskRequest, onChunk func(string) error) (string, []model.Citation, error) {
	ctx, pipelineSpan, spanErr := o.tracer.PipelineSpan(ctx, req.SessionID, req.QAID)
	if spanErr != nil {
		slog.Warn("orchestrator: pipeline span registration failed", "error", spanErr)
	}
	defer pipelineSpan.End()

	_, guardSpan := o.tracer.ChildSpan(ctx, "guardrail")
	if err := validate.Query(req.Question); err != nil {
		guardSpan.RecordError(err)
		guardSpan.SetStatus(codes.Error, "guardrail rejected")
		guardSpan.End()
		pipelineSpan.SetStatus(codes.Error, "guardrail rejected")
		return "", nil, err
	}
	guardSpan.End()

	retrCtx, retrSpan := o.tracer.ChildSpan(ctx, "retrieval")
	docs, err := o.retriever.Invoke(retrCtx, model.RetrievalRequest{
		Query:            req.Question,
		K:                req.K,
		CorpusFilter:     req.CorpusFilter,
		DirectionFilter:  req.DirectionFilter,
		TimePeriodFilter: req.TimePeriodFilter,
		SessionID:        req.SessionID,
		QAID:             req.QAID,
	})
	if err != nil {
		retrSpan.RecordError(err)
		retrSpan.SetStatus(codes.Error, "retrieval failed")
		retrSpan.End()
		pipelineSpan.SetStatus(codes.Error, "retrieval failed")
		return "", nil, err
	}
	retrSpan.End()

	if o.reranker != nil {
		rerankCtx, rerankSpan := o.tracer.ChildSpan(ctx, "reranking")
		docs, err = o.reranker.Rerank(rerankCtx, req.Question, docs)
		if err != nil {
			rerankSpan.RecordError(err)
			rerankSpan.SetStatus(codes.Error, "reranking failed")
			rerankSpan.End()
			pipelineSpan.SetStatus(codes.Error, "reranking failed")
			return "", nil, err
		}
		rerankSpan.End()
	}

	if err := o.sem.acquire(ctx); err != nil {
		pipelineSpan.SetStatus(codes.Error, "cancelled waiting for generation slot")
		return "", nil, err
	}
	defer o.sem.release()

	genCtx, genSpan, spanErr := o.tracer.GenerationSpan(ctx, req.SessionID, req.QAID)
	if spanErr != nil {
		slog.Warn("orchestrator: generation span registration failed", "error", spanErr)
	}
	defer genSpan.End()

	contextBlock := buildContextBlock(docs)
	cachedPortion, _ := o.promptCache.BuildOptimizedPrompt(o.systemPrompt, contextBlock, req.Provider, o.modelFor(req))
	dynamicPortion := buildUserPrompt(req.ChatHistory, req.Question)

	chunkCh, errCh := o.llm.Stream(genCtx, cachedPortion, dynamicPortion, o.temperature, o.modelFor(req), req.Provider)

	var full strings.Builder
	chunkCount := 0

	for chunkCh != nil || errCh != nil {
		select {
		case <-genCtx.Done():
			genSpan.SetStatus(codes.Error, "cancelled")
			pipelineSpan.SetStatus(codes.Error, "cancelled")
			return full.String(), nil, genCtx.Err()

		case chunk, ok := <-chunkCh:
			if !ok {
				chunkCh = nil
				continue
			}
			chunk = replacePlaceholder(chunk)
			full.WriteString(chunk)
			chunkCount++
			if onChunk != nil {
				if writeErr := onChunk(chunk); writeErr != nil {
					genSpan.SetStatus(codes.Error, "cancelled")
					pipelineSpan.SetStatus(codes.Error, "cancelled")
					return full.String(), nil, writeErr
				}
			}
			if chunkCount%o.spanUpdateEvery == 0 {
				setRollingAttributes(genSpan, chunkCount, full.Len())
			}

		case streamErr, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if streamErr != nil {
				genSpan.RecordError(streamErr)
				genSpan.SetStatus(codes.Error, "llm adapter failure")
				pipelineSpan.SetStatus(codes.Error, "generation failed")
				return full.String(), nil, streamErr
			}
		}
	}

	setRollingAttributes(genSpan, chunkCount, full.Len())
	genSpan.SetStatus(codes.Ok, "")

	citations := rerank.AggregateCitations(docs, o.citationLimit)
	o.enrichEntities(ctx, citations)
	pipelineSpan.SetStatus(codes.Ok, "")
	return full.String(), citations, nil
}

// entityEnrichmentLimit caps the co-occurring entities fetched per
// citation; this is a supplementary UI hint, not core retrieval, so it
// stays small.
const entityEnrichmentLimit = 5

// enrichEntities adds "also mentioned with" entities to each citation
// from the configured correspondence graph. Failures are logged and
// skipped per-citation rather than failing the whole response: this is
// optional enrichment, not part of the answer itself.
func (o *Orchestrator) enrichEntities(ctx context.Context, citations []model.Citation) {
	if o.entityEnricher == nil {
		return
	}
	for i := range citations {
		persons := citations[i].Entities["persons"]
		if len(persons) == 0 {
			continue
		}
		related, err := o.entityEnricher.CoOccurring(ctx, persons[0], entityEnrichmentLimit)
		if err != nil {
			slog.Warn("entity enrichment failed", "entity", persons[0], "error", err)
			continue
		}
		citations[i].RelatedEntities = related
	}
}

// setRollingAttributes refreshes the generation span's chunk_count and
// response_length attributes as the response streams in.
func setRollingAttributes(span trace.Span, chunkCount, responseLength int) {
	span.SetAttributes(
		attribute.Int("chunk_count", chunkCount),
		attribute.Int("response_length", responseLength),
	)
}
