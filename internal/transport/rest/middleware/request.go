package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"veenoe/internal/cache"
)

// CORS allows the configured frontend origins. OPTIONS preflights are
// answered directly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequestLog stamps each request with an id and logs method, path,
// and duration.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s (%s)", requestID[:8], r.Method, r.URL.Path, time.Since(start))
	})
}

// RateLimit caps an authenticated user's calls on the wrapped route.
type RateLimit struct {
	limiter cache.RateLimiter
	limit   int
	window  time.Duration
}

func NewRateLimit(limiter cache.RateLimiter, limit int, window time.Duration) *RateLimit {
	return &RateLimit{limiter: limiter, limit: limit, window: window}
}

func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if user := GetUser(r.Context()); user != nil {
			key = user.UserID
		}

		allowed, err := rl.limiter.Allow(r.Context(), key, rl.limit, rl.window)
		if err != nil {
			// Fail open: rate limiting protects quota, it is not an
			// authorization gate.
			log.Printf("Rate limiter unavailable: %v", err)
			allowed = true
		}
		if !allowed {
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
