package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/radioacc/marta-sign/internal/db"
	"github.com/radioacc/marta-sign/internal/static/gtfs"
)

// maxFeedBytes caps the download; MARTA's zip is a few tens of MB
const maxFeedBytes = 512 << 20

// ImportZip parses the GTFS zip at zipPath and replaces the stored timetable
func ImportZip(ctx context.Context, database *db.DB, zipPath string) (db.ImportStats, error) {
	feed, err := gtfs.Parse(zipPath)
	if err != nil {
		return db.ImportStats{}, err
	}
	return database.ReplaceTimetable(ctx, feed, filepath.Base(zipPath))
}

// IsStale reports whether the stored timetable is missing or older than maxAge
func IsStale(ctx context.Context, database *db.DB, maxAge time.Duration, now time.Time) (bool, error) {
	at, ok, err := database.LastImport(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return now.Sub(at) > maxAge, nil
}

// RefreshIfStale downloads the feed at url into cacheDir and imports it when
// the stored timetable is older than maxAge. It reports whether an import ran.
func RefreshIfStale(ctx context.Context, database *db.DB, url, cacheDir string, maxAge time.Duration) (bool, error) {
	stale, err := IsStale(ctx, database, maxAge, time.Now())
	if err != nil {
		return false, err
	}
	if !stale {
		log.Info().Msg("Static: timetable is fresh, skipping refresh")
		return false, nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create cache dir: %w", err)
	}

	zipPath := filepath.Join(cacheDir, "marta_gtfs.zip")
	if err := Download(ctx, url, zipPath); err != nil {
		return false, err
	}

	if _, err := ImportZip(ctx, database, zipPath); err != nil {
		return false, err
	}
	return true, nil
}

// Download fetches url into dest, replacing dest only once the body is complete
func Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download feed: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".gtfs-*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(resp.Body, maxFeedBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write feed: %w", err)
	}
	if n > maxFeedBytes {
		return fmt.Errorf("feed exceeds %d bytes", maxFeedBytes)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move feed into place: %w", err)
	}

	log.Info().Str("dest", dest).Int64("bytes", n).Msg("Static: downloaded GTFS feed")
	return nil
}
