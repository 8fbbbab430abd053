package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eastern = time.FixedZone("EDT", -4*60*60)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in       string
		expected TimeOfDay
	}{
		{"08:05:00", TimeOfDay{Hour: 8, Minute: 5}},
		{"8:05", TimeOfDay{Hour: 8, Minute: 5}},
		{"23:59:59", TimeOfDay{Hour: 23, Minute: 59, Second: 59}},
		{"24:00:00", TimeOfDay{Days: 1}},
		{"25:10:00", TimeOfDay{Days: 1, Hour: 1, Minute: 10}},
		{" 12:30:15 ", TimeOfDay{Hour: 12, Minute: 30, Second: 15}},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestParseTimeOfDayInvalid(t *testing.T) {
	for _, in := range []string{"", "8", "aa:bb", "08:60:00", "08:00:61", "-1:00:00", "1:2:3:4"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestTimeOfDayOnRollsIntoNextDay(t *testing.T) {
	serviceDate := time.Date(2026, 10, 21, 0, 0, 0, 0, eastern)
	tod, err := ParseTimeOfDay("25:10:00")
	require.NoError(t, err)

	got := tod.On(serviceDate)
	assert.Equal(t, time.Date(2026, 10, 22, 1, 10, 0, 0, eastern), got)
	assert.Equal(t, "25:10:00", tod.String())
}

func TestMinutesUntil(t *testing.T) {
	now := time.Date(2026, 10, 21, 8, 0, 30, 0, eastern)

	assert.Equal(t, 4, MinutesUntil(now, now.Add(4*time.Minute+59*time.Second)))
	assert.Equal(t, 0, MinutesUntil(now, now.Add(30*time.Second)))
	assert.Equal(t, 0, MinutesUntil(now, now.Add(-time.Minute)))
	assert.Equal(t, "08:00:30", ClockString(now))
}
