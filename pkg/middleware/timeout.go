package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request with a deadline. Persistence calls downstream
// inherit it through the request context, so a stuck database cannot pin a
// handler goroutine forever.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
