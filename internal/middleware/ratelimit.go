package middleware

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/photodrop/service/internal/ratelimit"
	"github.com/photodrop/service/internal/response"
)

// RateLimit caps requests per client IP to limit per window. Counters are scoped by
// name so separate routes never share a budget. If the limiter itself fails the
// request is let through and the failure logged.
func RateLimit(l ratelimit.Limiter, name string, limit int, window time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := name + ":" + ClientIP(r)
			res, err := l.Allow(r.Context(), key, limit, window)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("limit", name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				response.TooManyRequests(w, "Too many requests, please try again later", res.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote address without the port. Run chi's
// RealIP first to honour proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
