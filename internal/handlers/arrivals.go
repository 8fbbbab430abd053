package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/arrivals"
)

// ArrivalsProvider answers arrivals queries for a station
type ArrivalsProvider interface {
	Arrivals(ctx context.Context, station string) []arrivals.Arrival
}

// ArrivalsHandler handles HTTP requests for the arrivals board
type ArrivalsHandler struct {
	provider ArrivalsProvider
}

// NewArrivalsHandler creates a new handler with the given provider
func NewArrivalsHandler(provider ArrivalsProvider) *ArrivalsHandler {
	return &ArrivalsHandler{provider: provider}
}

// GetArrivals handles GET /api/arrivals?station=NAME
// Always answers 200 with a JSON array; an outage shows as an empty board.
func (h *ArrivalsHandler) GetArrivals(w http.ResponseWriter, r *http.Request) {
	station := r.URL.Query().Get("station")

	board := h.provider.Arrivals(r.Context(), station)
	if board == nil {
		board = []arrivals.Arrival{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=15, stale-while-revalidate=10")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(board); err != nil {
		log.Warn().Err(err).Msg("Arrivals: failed to write response")
	}
}
