package httpapi

import (
	"net/http"
	"strconv"

	"github.com/historiqa/corpusqa/internal/middleware"
)

// maxRequestBytes caps request bodies at 10 MB per spec; oversized bodies
// surface as a 413 from decodeJSON once the wrapped reader trips.
const maxRequestBytes = 10 << 20

func maxBodyBytes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
		next.ServeHTTP(w, r)
	})
}

// remoteAddrRateLimit adapts the shared sliding-window limiter to this
// server's unauthenticated surface: every route is keyed by client IP
// rather than by an authenticated user, since there is no session/auth
// layer here.
func remoteAddrRateLimit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.Allow(r.RemoteAddr)
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
