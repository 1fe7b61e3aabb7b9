package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/vouchersplit/backend/internal/metrics"
)

// RateLimit allows max requests per user per window, counted in redis.
// With a nil client every request passes. Redis failures fail open.
func RateLimit(client *redis.Client, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if client == nil || max <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := rateLimitKey(r)

			count, err := client.Get(ctx, key).Int()
			if err != nil && err != redis.Nil {
				log.Printf("[RATELIMIT] Lookup failed for %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			if count >= max {
				metrics.RateLimited.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				http.Error(w, "Too many requests, please slow down", http.StatusTooManyRequests)
				return
			}

			pipe := client.Pipeline()
			pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, window)
			if _, err := pipe.Exec(ctx); err != nil {
				log.Printf("[RATELIMIT] Increment failed for %s: %v", key, err)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return fmt.Sprintf("ratelimit:user:%d", userID)
	}
	return "ratelimit:ip:" + r.RemoteAddr
}
