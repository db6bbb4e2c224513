package server

import (
	"net/http"

	apperrors "github.com/louisbranch/promptforge/internal/platform/errors"
	"golang.org/x/time/rate"
)

var errRateLimited = apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded")

// rateLimit rejects requests beyond a shared token bucket of perSecond
// requests with burst headroom. Health checks are never limited.
func rateLimit(next http.Handler, perSecond float64, burst int, a *api) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			a.writeError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}
