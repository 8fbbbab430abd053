package arrivals

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/realtime/marta"
)

// LiveSource serves the current realtime snapshot
type LiveSource interface {
	Records(ctx context.Context) []marta.Arrival
}

// Service answers arrivals queries for a station. It never fails: every
// upstream or store problem degrades to fewer (possibly zero) arrivals.
type Service struct {
	live           LiveSource
	merger         *Merger
	defaultStation string
}

// NewService wires the realtime cache and the merger together
func NewService(live LiveSource, merger *Merger, defaultStation string) *Service {
	return &Service{
		live:           live,
		merger:         merger,
		defaultStation: defaultStation,
	}
}

// DefaultStation returns the station used when a query names none
func (s *Service) DefaultStation() string {
	return s.defaultStation
}

// Arrivals returns the board for station, soonest first. The result is never nil.
func (s *Service) Arrivals(ctx context.Context, station string) (result []Arrival) {
	if strings.TrimSpace(station) == "" {
		station = s.defaultStation
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("station", station).Msg("Arrivals: recovered from panic")
			result = []Arrival{}
		}
	}()

	var records []marta.Arrival
	if s.live != nil {
		records = s.live.Records(ctx)
	}

	live := Match(records, station)
	merged := s.merger.Merge(ctx, live, NormalizeStationQuery(station))

	log.Debug().
		Str("station", station).
		Int("realtime", len(live)).
		Int("total", len(merged)).
		Msg("Arrivals: served")

	if merged == nil {
		return []Arrival{}
	}
	return merged
}
