package api

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS wraps the API handler so every response carries
// Access-Control-Allow-Origin: * and OPTIONS preflights short-circuit with
// 204 before any route runs.
func CORS(next http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(next)
}
