package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/historiqa/corpusqa/internal/middleware"
)

// New builds the chi router for the ask/query/async/feedback/diagnostics
// surface. Every route is public (no auth layer in this deployment);
// admission control is content-length, per-IP rate limiting, and the
// injection-sentinel check in validate.Query.
func New(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(deps.Config.FrontendURL))
	if deps.Metrics != nil {
		r.Use(middleware.Monitoring(deps.Metrics))
	}
	r.Use(maxBodyBytes)
	if deps.GeneralRateLimiter != nil {
		r.Use(remoteAddrRateLimit(deps.GeneralRateLimiter))
	}

	var pinger Pinger
	if deps.Queue != nil {
		pinger = deps.Queue
	}
	r.Get("/api/health", healthHandler(pinger))
	r.Get("/", healthHandler(pinger))
	if deps.MetricsReg != nil {
		r.Handle("/metrics", middleware.MetricsHandler(deps.MetricsReg))
	}

	timeout30s := middleware.Timeout(30 * time.Second)

	r.With(timeout30s).Get("/api/config", deps.configHandler)
	r.With(timeout30s).Get("/api/retriever/filters", deps.filtersHandler)

	r.With(timeout30s).Post("/query", deps.queryHandler)
	r.With(timeout30s).Post("/api/query", deps.queryHandler)

	// SSE streaming route: no write timeout, matching the no-timeout
	// rule for endpoints whose whole point is a long-lived response.
	r.Post("/api/ask/stream", deps.askStreamHandler)

	r.With(timeout30s).Post("/api/ask/async", deps.asyncSubmitHandler)
	r.With(timeout30s).Get("/api/ask/async/{id}", deps.asyncStatusHandler)
	r.With(timeout30s).Get("/api/queue/stats", deps.queueStatsHandler)

	r.With(timeout30s).Post("/api/feedback", deps.feedbackHandler)

	r.With(timeout30s).Get("/api/cache/stats", deps.cacheStatsHandler)
	r.With(timeout30s).Post("/api/cache/clear", deps.cacheClearHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	return r
}
