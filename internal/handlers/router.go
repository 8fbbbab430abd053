package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter mounts the public endpoints
func NewRouter(arrivalsHandler *ArrivalsHandler, healthHandler *HealthHandler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", Healthz)
	r.Get("/api/ping", Ping)

	r.Get("/api/arrivals", arrivalsHandler.GetArrivals)

	return r
}
