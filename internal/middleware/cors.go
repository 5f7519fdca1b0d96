package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/openclaw/wa-gateway-go/internal/config"
)

// CORS allows only the configured origins, with credentials. An empty list
// rejects every cross-origin caller. Requests without an Origin header are
// not affected.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           config.CORSMaxAge,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return cors.Handler(opts)
}
