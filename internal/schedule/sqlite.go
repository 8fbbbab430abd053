package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/radioacc/marta-sign/internal/db"
)

// SQLiteStore reads the timetable from a local SQLite file
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store over an open database
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// likeEscaper escapes LIKE metacharacters; queries use ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindStopIDs returns stops whose name contains query, ignoring case
func (s *SQLiteStore) FindStopIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT stop_id
		FROM stops
		WHERE UPPER(stop_name) LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY stop_id
	`, likeEscaper.Replace(strings.ToUpper(query)))
	if err != nil {
		return nil, fmt.Errorf("failed to query stops: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// NextDepartures returns departures at q.StopIDs on or after q.After for
// services running on q.Weekday, ordered by arrival time
func (s *SQLiteStore) NextDepartures(ctx context.Context, q DepartureQuery) ([]DepartureRow, error) {
	if len(q.StopIDs) == 0 || q.Limit <= 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(q.StopIDs)), ",")
	query := `
		SELECT
			st.stop_id,
			COALESCE(s.stop_name, '') as stop_name,
			st.arrival_time,
			COALESCE(t.trip_headsign, '') as trip_headsign,
			COALESCE(t.direction_id, 0) as direction_id,
			COALESCE(r.route_short_name, '') as route_short_name,
			COALESCE(r.route_long_name, '') as route_long_name
		FROM stop_times st
		JOIN trips t ON st.trip_id = t.trip_id
		JOIN calendar c ON t.service_id = c.service_id
		LEFT JOIN routes r ON t.route_id = r.route_id
		LEFT JOIN stops s ON st.stop_id = s.stop_id
		WHERE st.stop_id IN (` + placeholders + `)
		  AND st.arrival_time >= ?
		  AND (
			(? = 0 AND c.sunday = 1) OR
			(? = 1 AND c.monday = 1) OR
			(? = 2 AND c.tuesday = 1) OR
			(? = 3 AND c.wednesday = 1) OR
			(? = 4 AND c.thursday = 1) OR
			(? = 5 AND c.friday = 1) OR
			(? = 6 AND c.saturday = 1)
		  )
		ORDER BY st.arrival_time, st.stop_id
		LIMIT ?
	`

	dayOfWeek := int(q.Weekday)
	args := make([]any, 0, len(q.StopIDs)+9)
	for _, id := range q.StopIDs {
		args = append(args, id)
	}
	args = append(args, q.After)
	args = append(args, dayOfWeek, dayOfWeek, dayOfWeek, dayOfWeek, dayOfWeek, dayOfWeek, dayOfWeek)
	args = append(args, q.Limit)

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query departures: %w", err)
	}
	defer rows.Close()

	var departures []DepartureRow
	for rows.Next() {
		var d DepartureRow
		if err := rows.Scan(
			&d.StopID,
			&d.StopName,
			&d.ArrivalTime,
			&d.TripHeadsign,
			&d.DirectionID,
			&d.RouteShortName,
			&d.RouteLongName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan departure: %w", err)
		}
		departures = append(departures, d)
	}

	return departures, rows.Err()
}

// Ping checks the database is reachable
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.Conn().PingContext(ctx)
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
