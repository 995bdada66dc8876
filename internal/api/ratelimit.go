package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/brainvault/brainvault-server/internal/http/response"
	"github.com/brainvault/brainvault-server/internal/ratelimit"
)

// RateLimitMiddleware rate limits requests per authenticated user, falling
// back to the client IP. Returns 429 Too Many Requests when the limit is
// exceeded. Health and metrics probes are never limited.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			key := "ip:" + getClientIP(r)
			if user, err := GetUser(r.Context()); err == nil {
				key = "user:" + user.ID
			}

			if !limiter.Allow(key) {
				logger.Warn("Rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many requests. Please try again later.", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
