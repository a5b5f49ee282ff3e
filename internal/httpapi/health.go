package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is the backing store health check the /api/health handler
// degrades on; satisfied by *asyncqueue.Queue (nil when async is
// disabled, in which case health reports "ok" unconditionally).
type Pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		httpStatus := http.StatusOK

		if pinger != nil {
			if err := pinger.Ping(ctx); err != nil {
				status = "degraded"
				httpStatus = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(httpStatus)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}
}
