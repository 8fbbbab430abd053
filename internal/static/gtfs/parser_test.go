package gtfs

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func minimalFeed() map[string]string {
	return map[string]string{
		"stops.txt": "stop_id,stop_name,stop_lat,stop_lon\n" +
			"907,MIDTOWN STATION,33.78,-84.38\n" +
			"950,DORAVILLE STATION,33.90,-84.28\n",
		"routes.txt": "route_id,agency_id,route_short_name,route_long_name,route_type\n" +
			"R,MARTA,RED,RED-North South Line,1\n",
		"trips.txt": "route_id,service_id,trip_id,trip_headsign,direction_id,shape_id\n" +
			"R,WKDY,T1,RED NORTHBOUND TO NORTH SPRINGS,1,S1\n",
		"stop_times.txt": "trip_id,arrival_time,departure_time,stop_id,stop_sequence\n" +
			"T1,7:55:00,7:55:30,907,3\n" +
			"T1,24:20:00,24:20:00,950,9\n",
		"calendar.txt": "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"WKDY,1,1,1,1,1,0,0,20260801,20261231\n",
		"shapes.txt": "shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\nS1,33.7,-84.3,1\n",
	}
}

func TestParseBytes(t *testing.T) {
	feed, err := ParseBytes(buildZip(t, minimalFeed()))
	require.NoError(t, err)

	require.Len(t, feed.Stops, 2)
	assert.Equal(t, Stop{StopID: "907", StopName: "MIDTOWN STATION"}, feed.Stops[0])

	require.Len(t, feed.Routes, 1)
	assert.Equal(t, "RED-North South Line", feed.Routes[0].RouteLongName)

	require.Len(t, feed.Trips, 1)
	assert.Equal(t, Trip{TripID: "T1", RouteID: "R", ServiceID: "WKDY", TripHeadsign: "RED NORTHBOUND TO NORTH SPRINGS", DirectionID: 1}, feed.Trips[0])

	require.Len(t, feed.StopTimes, 2)
	assert.Equal(t, "07:55:00", feed.StopTimes[0].ArrivalTime)
	assert.Equal(t, "24:20:00", feed.StopTimes[1].ArrivalTime)
	assert.Equal(t, 9, feed.StopTimes[1].StopSequence)

	require.Len(t, feed.Calendars, 1)
	assert.Equal(t, Calendar{
		ServiceID: "WKDY", Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1,
		StartDate: "20260801", EndDate: "20261231",
	}, feed.Calendars[0])
}

func TestParseFromDiskWithFolderAndBOM(t *testing.T) {
	files := map[string]string{}
	for name, content := range minimalFeed() {
		files["marta/"+name] = content
	}
	files["marta/stops.txt"] = "\ufeff" + files["marta/stops.txt"]

	path := filepath.Join(t.TempDir(), "google_transit.zip")
	require.NoError(t, os.WriteFile(path, buildZip(t, files), 0o644))

	feed, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, feed.Stops, 2)
	assert.Equal(t, "907", feed.Stops[0].StopID)
}

func TestParseMissingRequiredFile(t *testing.T) {
	files := minimalFeed()
	delete(files, "stop_times.txt")

	_, err := ParseBytes(buildZip(t, files))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop_times.txt")
}

func TestParseNotAZip(t *testing.T) {
	_, err := ParseBytes([]byte("not a zip"))
	assert.Error(t, err)

	_, err = Parse(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"7:55:00", "07:55:00"},
		{"07:55:00", "07:55:00"},
		{"25:10:00", "25:10:00"},
		{" 8:00:00 ", "08:00:00"},
		{"", ""},
		{"8:00", "8:00"},
		{"123:00:00", "123:00:00"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, NormalizeTime(tc.in), "input %q", tc.in)
	}
}
