package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/sheetscribe/internal/api/response"
	"github.com/kiranshivaraju/sheetscribe/internal/cache"
)

const (
	defaultRequestsPerMinute = 6
	window                   = time.Minute
)

// RateLimit caps protected requests per caller in fixed one-minute windows
// counted in Redis. A pass can hold Gemini for minutes, so the default is low.
type RateLimit struct {
	cache cache.Cache
	limit int
}

func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, limit: requestsPerMin}
}

// Limit must run after Authenticate; requests without a caller pass through.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := GetCaller(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		count, err := rl.cache.IncrWithExpiry(r.Context(), cache.RateLimitKey("trigger:"+caller), window)
		if err != nil {
			// fail open: a Redis outage must not lock operators out
			slog.Warn("rate limit unavailable", "caller", caller, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := max(rl.limit-int(count), 0)
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(window).Unix(), 10))

		if count > int64(rl.limit) {
			h.Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			response.Error(w, http.StatusTooManyRequests,
				response.CodeRateLimited, "Too many trigger requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
