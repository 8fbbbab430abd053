package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/arrivals"
)

// lineKeywords are checked in order against the route names
var lineKeywords = []string{"RED", "GOLD", "BLUE", "GREEN"}

// defaultLine is used when no keyword matches
const defaultLine = "GRAY"

// overnightHours is how long after midnight the previous service day's
// late trips are still looked up
const overnightHours = 4

// Fallback serves scheduled departures from the static timetable
type Fallback struct {
	store        Store
	calendar     *Calendar
	now          func() time.Time
	queryTimeout time.Duration
}

// Option configures a Fallback
type Option func(*Fallback)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(f *Fallback) { f.now = now }
}

// WithQueryTimeout bounds each store query
func WithQueryTimeout(d time.Duration) Option {
	return func(f *Fallback) {
		if d > 0 {
			f.queryTimeout = d
		}
	}
}

// NewFallback creates a fallback source. store may be nil, in which case
// every lookup reports ErrStoreUnavailable.
func NewFallback(store Store, calendar *Calendar, opts ...Option) *Fallback {
	if calendar == nil {
		calendar = NewCalendar(nil, nil)
	}
	f := &Fallback{
		store:        store,
		calendar:     calendar,
		now:          time.Now,
		queryTimeout: DefaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ScheduledDepartures returns up to limit departures at stations whose name
// contains stationQuery, soonest first, starting from the current time of day
func (f *Fallback) ScheduledDepartures(ctx context.Context, stationQuery string, limit int) ([]arrivals.Arrival, error) {
	if f.store == nil {
		return []arrivals.Arrival{}, ErrStoreUnavailable
	}
	if limit <= 0 {
		return []arrivals.Arrival{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.queryTimeout)
	defer cancel()

	now := f.now().In(f.calendar.Location())
	serviceDate, weekday := f.calendar.ServiceDay(now)

	query := arrivals.NormalizeStationQuery(stationQuery)
	stopIDs, err := f.store.FindStopIDs(ctx, query)
	if err != nil {
		return []arrivals.Arrival{}, fmt.Errorf("%w: failed to find stops: %w", ErrStoreUnavailable, err)
	}
	if len(stopIDs) == 0 {
		return []arrivals.Arrival{}, fmt.Errorf("%w: %q", ErrNoMatchingStops, query)
	}

	rows, err := f.store.NextDepartures(ctx, DepartureQuery{
		StopIDs: stopIDs,
		Weekday: weekday,
		After:   ClockString(now),
		Limit:   limit,
	})
	if err != nil {
		return []arrivals.Arrival{}, fmt.Errorf("%w: failed to query departures: %w", ErrStoreUnavailable, err)
	}
	departures := toDepartures(rows, serviceDate, now)

	// Yesterday's trips keep running past midnight with hours >= 24
	if now.Hour() < overnightHours {
		prevDate, prevWeekday := f.calendar.ServiceDay(serviceDate.AddDate(0, 0, -1))
		lateRows, err := f.store.NextDepartures(ctx, DepartureQuery{
			StopIDs: stopIDs,
			Weekday: prevWeekday,
			After:   fmt.Sprintf("%02d:%02d:%02d", now.Hour()+24, now.Minute(), now.Second()),
			Limit:   limit,
		})
		if err != nil {
			log.Warn().Err(err).Str("station", query).Msg("Schedule: previous service day lookup failed")
		} else {
			departures = append(departures, toDepartures(lateRows, prevDate, now)...)
			sort.SliceStable(departures, func(i, j int) bool {
				return departures[i].at.Before(departures[j].at)
			})
		}
	}

	if len(departures) > limit {
		departures = departures[:limit]
	}
	result := make([]arrivals.Arrival, len(departures))
	for i, d := range departures {
		result[i] = d.arrival
	}

	log.Debug().
		Str("station", query).
		Str("weekday", weekday.String()).
		Int("stops", len(stopIDs)).
		Int("departures", len(result)).
		Msg("Schedule: fallback departures")

	return result, nil
}

type departure struct {
	at      time.Time
	arrival arrivals.Arrival
}

func toDepartures(rows []DepartureRow, serviceDate, now time.Time) []departure {
	out := make([]departure, 0, len(rows))
	for _, row := range rows {
		d, err := toDeparture(row, serviceDate, now)
		if err != nil {
			log.Debug().Err(err).Str("stop", row.StopID).Msg("Schedule: skipping row")
			continue
		}
		out = append(out, d)
	}
	return out
}

func toDeparture(row DepartureRow, serviceDate, now time.Time) (departure, error) {
	tod, err := ParseTimeOfDay(row.ArrivalTime)
	if err != nil {
		return departure{}, err
	}
	at := tod.On(serviceDate)

	routeText := strings.ToUpper(row.RouteLongName + " " + row.RouteShortName)

	// "BLUE WESTBOUND TO ..." pins the direction on an "East West Line" route
	direction := headsignBound(row.TripHeadsign)
	if direction == "" {
		direction = DirectionCode(row.DirectionID, routeText)
	}

	a := arrivals.Arrival{
		Station:        row.StopName,
		Destination:    arrivals.CleanDestination(row.TripHeadsign),
		Line:           LineColor(routeText),
		Direction:      direction,
		WaitingTime:    fmt.Sprintf("%d min", MinutesUntil(now, at)),
		WaitingSeconds: ScheduledWaitingSeconds,
		Status:         arrivals.StatusScheduled,
	}
	return departure{at: at, arrival: a}, nil
}

// headsignBound returns E or W when the headsign carries an EASTBOUND or
// WESTBOUND routing word, "" otherwise. Station names such as East Point or
// West End do not count.
func headsignBound(headsign string) string {
	for _, word := range strings.Fields(strings.ToUpper(headsign)) {
		switch word {
		case "EASTBOUND":
			return "E"
		case "WESTBOUND":
			return "W"
		}
	}
	return ""
}

// LineColor picks the rail line named in routeText, GRAY if none
func LineColor(routeText string) string {
	upper := strings.ToUpper(routeText)
	for _, kw := range lineKeywords {
		if strings.Contains(upper, kw) {
			return kw
		}
	}
	return defaultLine
}

// DirectionCode maps the GTFS direction flag to N/S, switching to E/W for
// routes described as running east or west
func DirectionCode(directionID int, routeText string) string {
	upper := strings.ToUpper(routeText)
	switch {
	case strings.Contains(upper, "EAST"):
		return "E"
	case strings.Contains(upper, "WEST"):
		return "W"
	case directionID == 1:
		return "N"
	default:
		return "S"
	}
}
