package schedule

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radioacc/marta-sign/internal/db"
	"github.com/radioacc/marta-sign/internal/static/gtfs"
)

func fixtureFeed() *gtfs.Feed {
	return &gtfs.Feed{
		Stops: []gtfs.Stop{
			{StopID: "907", StopName: "MIDTOWN STATION"},
			{StopID: "908", StopName: "Midtown Station"},
			{StopID: "950", StopName: "DORAVILLE STATION"},
			{StopID: "999", StopName: "100% PLAZA"},
		},
		Routes: []gtfs.Route{
			{RouteID: "R", RouteShortName: "RED", RouteLongName: "RED-North South Line"},
			{RouteID: "G", RouteShortName: "GOLD", RouteLongName: "GOLD-North South Line"},
		},
		Trips: []gtfs.Trip{
			{TripID: "T1", RouteID: "R", ServiceID: "WKDY", TripHeadsign: "RED NORTHBOUND TO NORTH SPRINGS", DirectionID: 1},
			{TripID: "T2", RouteID: "G", ServiceID: "WKDY", TripHeadsign: "GOLD SOUTHBOUND TO AIRPORT", DirectionID: 0},
			{TripID: "T3", RouteID: "R", ServiceID: "SUN", TripHeadsign: "RED SOUTHBOUND TO AIRPORT", DirectionID: 0},
			{TripID: "T4", RouteID: "G", ServiceID: "WKDY", TripHeadsign: "GOLD NORTHBOUND TO DORAVILLE", DirectionID: 1},
		},
		StopTimes: []gtfs.StopTime{
			{TripID: "T1", StopID: "907", StopSequence: 10, ArrivalTime: "8:10:00"},
			{TripID: "T2", StopID: "908", StopSequence: 5, ArrivalTime: "08:02:00"},
			{TripID: "T2", StopID: "950", StopSequence: 1, ArrivalTime: "07:40:00"},
			{TripID: "T3", StopID: "907", StopSequence: 10, ArrivalTime: "08:05:00"},
			{TripID: "T4", StopID: "907", StopSequence: 3, ArrivalTime: "07:55:00"},
			{TripID: "T4", StopID: "950", StopSequence: 9, ArrivalTime: "24:20:00"},
		},
		Calendars: []gtfs.Calendar{
			{ServiceID: "WKDY", Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1},
			{ServiceID: "SUN", Sunday: 1},
		},
	}
}

func newFixtureStore(t *testing.T) *SQLiteStore {
	t.Helper()

	database, err := db.Connect(filepath.Join(t.TempDir(), "timetable.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx))
	_, err = database.ReplaceTimetable(ctx, fixtureFeed(), "fixture")
	require.NoError(t, err)

	return NewSQLiteStore(database)
}

func TestSQLiteFindStopIDs(t *testing.T) {
	store := newFixtureStore(t)
	ctx := context.Background()

	ids, err := store.FindStopIDs(ctx, "MIDTOWN")
	require.NoError(t, err)
	assert.Equal(t, []string{"907", "908"}, ids)

	ids, err = store.FindStopIDs(ctx, "doraville")
	require.NoError(t, err)
	assert.Equal(t, []string{"950"}, ids)

	// LIKE wildcards in the query are literal
	ids, err = store.FindStopIDs(ctx, "%")
	require.NoError(t, err)
	assert.Equal(t, []string{"999"}, ids)

	ids, err = store.FindStopIDs(ctx, "_")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSQLiteNextDepartures(t *testing.T) {
	store := newFixtureStore(t)

	rows, err := store.NextDepartures(context.Background(), DepartureQuery{
		StopIDs: []string{"907", "908"},
		Weekday: time.Wednesday,
		After:   "08:00:00",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, DepartureRow{
		StopID:         "908",
		StopName:       "Midtown Station",
		ArrivalTime:    "08:02:00",
		TripHeadsign:   "GOLD SOUTHBOUND TO AIRPORT",
		DirectionID:    0,
		RouteShortName: "GOLD",
		RouteLongName:  "GOLD-North South Line",
	}, rows[0])
	// stored with a padded hour
	assert.Equal(t, "08:10:00", rows[1].ArrivalTime)
	assert.Equal(t, "907", rows[1].StopID)
}

func TestSQLiteNextDeparturesWeekdayAndLimit(t *testing.T) {
	store := newFixtureStore(t)
	ctx := context.Background()

	rows, err := store.NextDepartures(ctx, DepartureQuery{
		StopIDs: []string{"907", "908"},
		Weekday: time.Sunday,
		After:   "08:00:00",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "RED SOUTHBOUND TO AIRPORT", rows[0].TripHeadsign)

	rows, err = store.NextDepartures(ctx, DepartureQuery{
		StopIDs: []string{"907", "908"},
		Weekday: time.Monday,
		After:   "07:00:00",
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "07:55:00", rows[0].ArrivalTime)
	assert.Equal(t, "08:02:00", rows[1].ArrivalTime)

	rows, err = store.NextDepartures(ctx, DepartureQuery{Weekday: time.Monday, After: "07:00:00", Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLiteNextDeparturesAfterMidnightTrips(t *testing.T) {
	store := newFixtureStore(t)

	rows, err := store.NextDepartures(context.Background(), DepartureQuery{
		StopIDs: []string{"950"},
		Weekday: time.Friday,
		After:   "23:00:00",
		Limit:   5,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "24:20:00", rows[0].ArrivalTime)
}

func TestFallbackOverSQLite(t *testing.T) {
	store := newFixtureStore(t)
	f := NewFallback(store, NewCalendar(eastern, nil), WithClock(fixedClock(wednesdayMorning)))

	got, err := f.ScheduledDepartures(context.Background(), "Midtown Station", 9)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Airport", got[0].Destination)
	assert.Equal(t, "GOLD", got[0].Line)
	assert.Equal(t, "S", got[0].Direction)
	assert.Equal(t, "2 min", got[0].WaitingTime)

	assert.Equal(t, "North Springs", got[1].Destination)
	assert.Equal(t, "RED", got[1].Line)
	assert.Equal(t, "N", got[1].Direction)
	assert.Equal(t, "10 min", got[1].WaitingTime)

	require.NoError(t, store.Ping(context.Background()))
}

func TestOpenStoreMissingFile(t *testing.T) {
	_, err := OpenStore(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenStoreExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timetable.db")
	database, err := db.Connect(path)
	require.NoError(t, err)
	require.NoError(t, database.EnsureSchema(context.Background()))
	require.NoError(t, database.Close())

	store, err := OpenStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok)
}

func TestIsPostgresURL(t *testing.T) {
	assert.True(t, IsPostgresURL("postgres://marta@localhost/gtfs"))
	assert.True(t, IsPostgresURL("postgresql://marta@localhost/gtfs"))
	assert.False(t, IsPostgresURL("data/marta_gtfs.db"))
}
