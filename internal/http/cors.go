package httpx

import (
	"net/http"
	"time"

	"github.com/rs/cors"
)

const corsMaxAge = 10 * time.Minute

// WithCORS lets browser clients on origins call the API. An empty list allows any origin.
func WithCORS(next http.Handler, origins []string) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: int(corsMaxAge.Seconds()),
	}
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}
	return cors.New(opts).Handler(next)
}
