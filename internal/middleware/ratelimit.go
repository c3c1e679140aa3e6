package middleware

import (
	"net"
	"net/http"

	"github.com/hongminglow/mosque-donations/internal/http/respond"
	"github.com/hongminglow/mosque-donations/internal/log"
	"github.com/hongminglow/mosque-donations/internal/ratelimit"
)

// RateLimit rejects clients that exceed limiter with 429. Limiter failures
// let the request through.
func RateLimit(limiter ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r) + ":" + r.URL.Path
			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
					Error("rate limiter unavailable", log.FieldError, err.Error())
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", "60")
				respond.Error(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
