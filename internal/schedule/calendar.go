package schedule

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Calendar resolves which weekday's timetable runs on a given date.
// Holidays are listed explicitly; MARTA runs them on another day's
// schedule (usually Sunday).
type Calendar struct {
	loc        *time.Location
	exceptions map[string]time.Weekday // YYYY-MM-DD -> weekday schedule
}

// NewCalendar creates a calendar in loc with the given date overrides
func NewCalendar(loc *time.Location, exceptions map[string]time.Weekday) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	ex := make(map[string]time.Weekday, len(exceptions))
	for date, wd := range exceptions {
		ex[date] = wd
	}
	return &Calendar{loc: loc, exceptions: ex}
}

// Location returns the calendar's timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// ServiceDay returns midnight of now's local date and the weekday whose
// timetable applies on it
func (c *Calendar) ServiceDay(now time.Time) (time.Time, time.Weekday) {
	local := now.In(c.loc)
	y, m, d := local.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, c.loc)

	if wd, ok := c.exceptions[date.Format(dateLayout)]; ok {
		return date, wd
	}
	return date, date.Weekday()
}

// ParseWeekday accepts full or three-letter English day names
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		full := strings.ToLower(wd.String())
		if name == full || name == full[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
