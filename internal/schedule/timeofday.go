package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a GTFS stop time. Trips that run past midnight keep counting
// hours on their service day, so "25:10:00" is 01:10 the next morning.
type TimeOfDay struct {
	Days   int // whole days past the service day
	Hour   int // 0-23
	Minute int
	Second int
}

// ParseTimeOfDay parses H:MM[:SS] with hours allowed to exceed 23
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}

	vals := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
		}
		vals[i] = n
	}
	if vals[1] > 59 || vals[2] > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}

	return TimeOfDay{
		Days:   vals[0] / 24,
		Hour:   vals[0] % 24,
		Minute: vals[1],
		Second: vals[2],
	}, nil
}

// On returns the absolute time of t on the given service date
func (t TimeOfDay) On(serviceDate time.Time) time.Time {
	y, m, d := serviceDate.Date()
	return time.Date(y, m, d+t.Days, t.Hour, t.Minute, t.Second, 0, serviceDate.Location())
}

// String formats t the way GTFS stores it, folding days back into hours
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Days*24+t.Hour, t.Minute, t.Second)
}

// ClockString formats the wall-clock time of t as HH:MM:SS
func ClockString(t time.Time) string {
	return t.Format("15:04:05")
}

// MinutesUntil returns whole minutes from now until at, never negative
func MinutesUntil(now, at time.Time) int {
	d := at.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
