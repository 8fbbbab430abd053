package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/static/gtfs"
)

// ImportStats counts the rows written by ReplaceTimetable
type ImportStats struct {
	ImportID  string
	Stops     int
	Routes    int
	Trips     int
	StopTimes int
	Calendars int
	Skipped   int
}

// ReplaceTimetable swaps the stored timetable for feed in one transaction
// and records the import against source. Readers keep seeing the previous
// timetable until the commit.
func (db *DB) ReplaceTimetable(ctx context.Context, feed *gtfs.Feed, source string) (ImportStats, error) {
	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var stats ImportStats

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"stop_times", "trips", "routes", "stops", "calendar"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return stats, fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	err = insertRows(ctx, tx,
		"INSERT OR REPLACE INTO stops (stop_id, stop_name) VALUES (?, ?)",
		len(feed.Stops), func(i int) []any {
			s := feed.Stops[i]
			if s.StopID == "" {
				return nil
			}
			return []any{s.StopID, s.StopName}
		}, &stats.Stops, &stats.Skipped)
	if err != nil {
		return stats, err
	}

	err = insertRows(ctx, tx,
		"INSERT OR REPLACE INTO routes (route_id, route_short_name, route_long_name) VALUES (?, ?, ?)",
		len(feed.Routes), func(i int) []any {
			r := feed.Routes[i]
			if r.RouteID == "" {
				return nil
			}
			return []any{r.RouteID, r.RouteShortName, r.RouteLongName}
		}, &stats.Routes, &stats.Skipped)
	if err != nil {
		return stats, err
	}

	err = insertRows(ctx, tx,
		"INSERT OR REPLACE INTO trips (trip_id, route_id, service_id, trip_headsign, direction_id) VALUES (?, ?, ?, ?, ?)",
		len(feed.Trips), func(i int) []any {
			t := feed.Trips[i]
			if t.TripID == "" {
				return nil
			}
			return []any{t.TripID, t.RouteID, t.ServiceID, t.TripHeadsign, t.DirectionID}
		}, &stats.Trips, &stats.Skipped)
	if err != nil {
		return stats, err
	}

	err = insertRows(ctx, tx,
		"INSERT OR REPLACE INTO stop_times (trip_id, stop_id, stop_sequence, arrival_time) VALUES (?, ?, ?, ?)",
		len(feed.StopTimes), func(i int) []any {
			st := feed.StopTimes[i]
			// Untimed intermediate stops carry no arrival time.
			if st.TripID == "" || st.StopID == "" || st.ArrivalTime == "" {
				return nil
			}
			return []any{st.TripID, st.StopID, st.StopSequence, gtfs.NormalizeTime(st.ArrivalTime)}
		}, &stats.StopTimes, &stats.Skipped)
	if err != nil {
		return stats, err
	}

	err = insertRows(ctx, tx, `
		INSERT OR REPLACE INTO calendar (
			service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			start_date, end_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(feed.Calendars), func(i int) []any {
			c := feed.Calendars[i]
			if c.ServiceID == "" {
				return nil
			}
			return []any{
				c.ServiceID, c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday,
				c.StartDate, c.EndDate,
			}
		}, &stats.Calendars, &stats.Skipped)
	if err != nil {
		return stats, err
	}

	stats.ImportID = uuid.New().String()
	_, err = tx.ExecContext(ctx,
		"INSERT INTO timetable_imports (import_id, source, imported_at_utc) VALUES (?, ?, ?)",
		stats.ImportID, source, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return stats, fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("failed to commit timetable: %w", err)
	}

	log.Info().
		Str("import", stats.ImportID).
		Str("source", source).
		Int("stops", stats.Stops).
		Int("routes", stats.Routes).
		Int("trips", stats.Trips).
		Int("stop_times", stats.StopTimes).
		Int("calendars", stats.Calendars).
		Int("skipped", stats.Skipped).
		Msg("DB: timetable replaced")

	return stats, nil
}

// LastImport returns when the timetable was last replaced. ok is false if
// it never was.
func (db *DB) LastImport(ctx context.Context) (at time.Time, ok bool, err error) {
	var importedAt string
	err = db.conn.QueryRowContext(ctx,
		"SELECT imported_at_utc FROM timetable_imports ORDER BY imported_at_utc DESC LIMIT 1",
	).Scan(&importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last import: %w", err)
	}

	at, err = time.Parse(time.RFC3339, importedAt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse import time: %w", err)
	}
	return at, true, nil
}

// insertRows runs query once per row; args returning nil skips the row
func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any, inserted, skipped *int) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		a := args(i)
		if a == nil {
			*skipped++
			continue
		}
		if _, err := stmt.ExecContext(ctx, a...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
		*inserted++
	}
	return nil
}
