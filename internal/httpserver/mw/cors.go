package mw

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets browser clients on the given origins call the API with
// credentials. No origins means same-origin only.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
