package schedule

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore reads the timetable from a PostgreSQL database with the
// same tables as the SQLite schema
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and verifies the connection
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) FindStopIDs(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT stop_id
		FROM stops
		WHERE stop_name ILIKE '%' || $1 || '%' ESCAPE '\'
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

func (s *PostgresStore) NextDepartures(ctx context.Context, q DepartureQuery) ([]DepartureRow, error) {
	if len(q.StopIDs) == 0 || q.Limit <= 0 {
		return nil, nil
	}

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
		WHERE st.stop_id = ANY($1)
		  AND st.arrival_time >= $2
		  AND (
			($3 = 0 AND c.sunday = 1) OR
			($3 = 1 AND c.monday = 1) OR
			($3 = 2 AND c.tuesday = 1) OR
			($3 = 3 AND c.wednesday = 1) OR
			($3 = 4 AND c.thursday = 1) OR
			($3 = 5 AND c.friday = 1) OR
			($3 = 6 AND c.saturday = 1)
		  )
		ORDER BY st.arrival_time, st.stop_id
		LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query, q.StopIDs, q.After, int(q.Weekday), q.Limit)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
