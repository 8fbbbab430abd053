package gtfs

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// requiredFiles must be present for a feed to be usable
var requiredFiles = []string{"stops.txt", "trips.txt", "stop_times.txt", "calendar.txt"}

func init() {
	// Some feeds have short rows; let gocsv fill the missing columns with zero values.
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		r.TrimLeadingSpace = true
		return r
	})
}

// Parse reads a GTFS zip file from disk
func Parse(zipPath string) (*Feed, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer r.Close()

	return parseArchive(&r.Reader)
}

// ParseBytes reads a GTFS zip held in memory
func ParseBytes(body []byte) (*Feed, error) {
	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip: %w", err)
	}
	return parseArchive(archive)
}

func parseArchive(archive *zip.Reader) (*Feed, error) {
	feed := &Feed{}
	fileMap := map[string]interface{}{
		"stops.txt":      &feed.Stops,
		"routes.txt":     &feed.Routes,
		"trips.txt":      &feed.Trips,
		"stop_times.txt": &feed.StopTimes,
		"calendar.txt":   &feed.Calendars,
	}

	found := make(map[string]bool, len(fileMap))
	for _, zipFile := range archive.File {
		// Feeds are sometimes zipped with a top-level folder.
		name := zipFile.Name
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}

		destination, ok := fileMap[name]
		if !ok {
			continue
		}

		if err := unmarshalFile(zipFile, destination); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		found[name] = true
	}

	for _, name := range requiredFiles {
		if !found[name] {
			return nil, fmt.Errorf("feed is missing %s", name)
		}
	}

	for i := range feed.StopTimes {
		feed.StopTimes[i].ArrivalTime = NormalizeTime(feed.StopTimes[i].ArrivalTime)
	}

	log.Info().
		Int("stops", len(feed.Stops)).
		Int("routes", len(feed.Routes)).
		Int("trips", len(feed.Trips)).
		Int("stop_times", len(feed.StopTimes)).
		Int("calendars", len(feed.Calendars)).
		Msg("GTFS: parsed feed")

	return feed, nil
}

func unmarshalFile(zipFile *zip.File, destination interface{}) error {
	rc, err := zipFile.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	return gocsv.Unmarshal(br, destination)
}

// NormalizeTime zero-pads the hour of an H:MM:SS time so stored times sort
// lexically. Values it cannot read are returned trimmed but otherwise as-is.
func NormalizeTime(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 || len(parts[0]) == 0 || len(parts[0]) > 2 {
		return s
	}
	if len(parts[0]) == 1 {
		parts[0] = "0" + parts[0]
	}
	return strings.Join(parts, ":")
}
