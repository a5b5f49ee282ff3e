package httpapi

import (
	"net/http"
	"time"

	"github.com/historiqa/corpusqa/internal/asyncqueue"
)

type queueStatsResponse struct {
	QueueStats   *asyncqueue.Stats `json:"queue_stats,omitempty"`
	AsyncEnabled bool              `json:"async_enabled"`
	InFlight     int               `json:"inFlight"`
	Timestamp    time.Time         `json:"timestamp"`
}

func (d *Dependencies) queueStatsHandler(w http.ResponseWriter, r *http.Request) {
	resp := queueStatsResponse{
		AsyncEnabled: d.Queue != nil,
		InFlight:     d.Orchestrator.InFlight(),
		Timestamp:    time.Now(),
	}

	if d.Queue != nil {
		stats, err := d.Queue.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "async queue unavailable")
			return
		}
		resp.QueueStats = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}
