package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

const localDevOrigin = "http://localhost:3000"

// CORS restricts browsers to the storefront origins. The local dev origin is
// added outside prod.
func CORS(origins []string, allowLocal bool) func(http.Handler) http.Handler {
	allowed := append([]string{}, origins...)
	if allowLocal {
		allowed = append(allowed, localDevOrigin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
