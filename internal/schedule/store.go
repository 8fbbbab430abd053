package schedule

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/radioacc/marta-sign/internal/db"
)

// IsPostgresURL reports whether dsn names a PostgreSQL database
func IsPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// OpenStore opens the timetable named by dsn: a postgres URL or a SQLite
// file path. A SQLite file that does not exist yields an error wrapping
// fs.ErrNotExist rather than an empty new database.
func OpenStore(ctx context.Context, dsn string) (Store, error) {
	if IsPostgresURL(dsn) {
		store, err := NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	if _, err := os.Stat(dsn); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("timetable database %s: %w", dsn, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to stat timetable database: %w", err)
	}

	database, err := db.Connect(dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(database), nil
}
