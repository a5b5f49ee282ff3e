package httpapi

import "net/http"

func (d *Dependencies) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.PromptCache.Stats())
}

func (d *Dependencies) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	d.PromptCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"message": "cache cleared", "status": "ok"})
}
