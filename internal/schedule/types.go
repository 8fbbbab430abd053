package schedule

import (
	"context"
	"errors"
	"time"
)

// ScheduledWaitingSeconds is the sort key given to every scheduled
// departure. It is larger than any realtime wait, so timetable entries
// always follow live ones on the board.
const ScheduledWaitingSeconds = 99999

// DefaultQueryTimeout bounds each timetable query
const DefaultQueryTimeout = 5 * time.Second

// DefaultTimezone is the timezone MARTA publishes its timetable in
const DefaultTimezone = "America/New_York"

var (
	// ErrStoreUnavailable is returned when the timetable store is missing
	// or a query against it failed
	ErrStoreUnavailable = errors.New("schedule store unavailable")

	// ErrNoMatchingStops is returned when no stop name contains the query
	ErrNoMatchingStops = errors.New("no stops match station")
)

// DepartureRow is one scheduled stop time joined with its trip and route
type DepartureRow struct {
	StopID         string
	StopName       string
	ArrivalTime    string // HH:MM:SS, hours may exceed 23
	TripHeadsign   string
	DirectionID    int
	RouteShortName string
	RouteLongName  string
}

// DepartureQuery selects the next departures at a set of stops
type DepartureQuery struct {
	StopIDs []string
	Weekday time.Weekday // service calendar column to honour
	After   string       // HH:MM:SS, inclusive
	Limit   int
}

// Store is a queryable GTFS timetable
type Store interface {
	// FindStopIDs returns stops whose name contains query, ignoring case
	FindStopIDs(ctx context.Context, query string) ([]string, error)
	// NextDepartures returns departures ordered by arrival time
	NextDepartures(ctx context.Context, q DepartureQuery) ([]DepartureRow, error)
	Ping(ctx context.Context) error
	Close() error
}
