package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware. The defaults match
// the webhook contract: POST plus preflight, bearer auth headers allowed,
// preflight results cacheable for a day.
type CORSConfig struct {
	// AllowedOrigin is the single origin the webhook endpoints accept.
	// "*" allows all origins (development only).
	AllowedOrigin string

	// AllowedMethods defaults to POST, OPTIONS if empty.
	AllowedMethods []string

	// AllowedHeaders defaults to Content-Type, Authorization if empty.
	AllowedHeaders []string

	// MaxAge is how long (in seconds) preflight results can be cached.
	// Defaults to 86400 if 0.
	MaxAge int
}

// DefaultCORSConfig returns the webhook endpoints' CORS policy.
func DefaultCORSConfig(origin string) CORSConfig {
	return CORSConfig{
		AllowedOrigin:  origin,
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	}
}

// CORS returns middleware that sets Cross-Origin Resource Sharing headers and
// answers preflight OPTIONS requests with the configured headers and no body.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"POST", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Content-Type", "Authorization"}
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 86400
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.AllowedOrigin)
			if cfg.AllowedOrigin != "*" {
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", methods)
			w.Header().Set("Access-Control-Allow-Headers", headers)
			w.Header().Set("Access-Control-Max-Age", maxAge)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
