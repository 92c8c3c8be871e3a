package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/sakif/foodgram/internal/metrics"
)

// RateLimit allows requestsPerMinute requests per client IP. Requests over
// the limit get a JSON 429 and are counted in metrics.RateLimitHits. Zero
// disables the limiter.
func RateLimit(requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitHits.Inc()
			logger.Warn("rate limit exceeded",
				slog.String("path", r.URL.Path),
				slog.String("remote", r.RemoteAddr),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","code":"rate_limited","message":"too many requests, slow down"}` + "\n"))
		}),
	)
}
