package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/arrivals"
	"github.com/radioacc/marta-sign/internal/config"
	"github.com/radioacc/marta-sign/internal/livecache"
	"github.com/radioacc/marta-sign/internal/realtime/marta"
	"github.com/radioacc/marta-sign/internal/schedule"
)

// board is the assembled arrivals pipeline
type board struct {
	cache   *livecache.Cache
	service *arrivals.Service
	store   schedule.Store // nil when running without a timetable
}

func (b *board) Close() {
	if b.store != nil {
		if err := b.store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close timetable store")
		}
	}
}

// newBoard validates cfg and wires the feed client, cache, timetable and
// merger together. A missing SQLite timetable is not fatal.
func newBoard(ctx context.Context, cfg *config.Config) (*board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	exceptions, err := config.LoadCalendarExceptions(cfg.CalendarExceptionsFile)
	if err != nil {
		return nil, err
	}

	client := marta.NewClient(cfg.Endpoints(), cfg.FeedTimeout).WithUserAgent(cfg.UserAgent)
	cache := livecache.New(client.FetchArrivals, livecache.WithTTL(cfg.CacheTTL))

	store, err := schedule.OpenStore(ctx, cfg.DatabasePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn().Str("path", cfg.DatabasePath).Msg("Timetable not found, running without scheduled fallback")
		store = nil
	case err != nil:
		return nil, fmt.Errorf("failed to open timetable: %w", err)
	}

	var fallback arrivals.FallbackSource
	if store != nil {
		fallback = schedule.NewFallback(store,
			schedule.NewCalendar(loc, exceptions),
			schedule.WithQueryTimeout(cfg.QueryTimeout),
		)
	}

	merger := arrivals.NewMerger(fallback, cfg.TargetCount)
	service := arrivals.NewService(cache, merger, cfg.DefaultStation)

	log.Info().
		Int("feeds", len(cfg.FeedURLs)).
		Dur("ttl", cfg.CacheTTL).
		Int("target", cfg.TargetCount).
		Bool("fallback", store != nil).
		Int("calendar_exceptions", len(exceptions)).
		Str("timezone", loc.String()).
		Msg("Arrivals board ready")

	return &board{cache: cache, service: service, store: store}, nil
}
