// Package httpapi wires the ask/query/async/feedback/diagnostics routes
// onto a chi router: request validation and framing only, with every
// actual pipeline stage delegated to internal/orchestrator,
// internal/asyncqueue, internal/promptcache, and internal/tracing.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/historiqa/corpusqa/internal/asyncqueue"
	"github.com/historiqa/corpusqa/internal/config"
	"github.com/historiqa/corpusqa/internal/middleware"
	"github.com/historiqa/corpusqa/internal/orchestrator"
	"github.com/historiqa/corpusqa/internal/promptcache"
	"github.com/historiqa/corpusqa/internal/retriever"
	"github.com/historiqa/corpusqa/internal/tracing"
)

// Dependencies bundles everything the router and handlers need. Queue is
// nil when no Redis is configured (development without async support);
// the async routes respond 503 in that case rather than panicking.
type Dependencies struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Retriever    *retriever.Retriever
	Queue        *asyncqueue.Queue
	PromptCache  *promptcache.Cache
	Tracer       *tracing.Tracer

	Metrics    *middleware.Metrics
	MetricsReg *prometheus.Registry
	Version    string

	GeneralRateLimiter *middleware.RateLimiter
}
