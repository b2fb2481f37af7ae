package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows browser calls from origins. "*" allows any origin. Preflight
// requests from an allowed origin are answered without reaching next.
func CORS(origins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{"Location", RequestIDHeader},
		MaxAge:         86400,
	})
	return c.Handler
}
