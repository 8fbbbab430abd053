package arrivals

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/radioacc/marta-sign/internal/realtime/marta"
)

const stationSuffix = " STATION"

// routingPrefixes are the "<LINE> <BOUND> TO " headers the feed prepends to
// some destinations, e.g. "RED NORTHBOUND TO DORAVILLE"
var routingPrefixes = buildRoutingPrefixes()

func buildRoutingPrefixes() []string {
	lines := []string{"RED", "GOLD", "BLUE", "GREEN"}
	bounds := []string{"NORTHBOUND", "SOUTHBOUND", "EASTBOUND", "WESTBOUND"}

	prefixes := make([]string, 0, len(lines)*len(bounds))
	for _, l := range lines {
		for _, b := range bounds {
			prefixes = append(prefixes, l+" "+b+" TO ")
		}
	}
	return prefixes
}

// NormalizeStationQuery upper-cases q and drops a trailing " STATION"
func NormalizeStationQuery(q string) string {
	q = strings.ToUpper(strings.TrimSpace(q))
	return strings.TrimSpace(strings.TrimSuffix(q, stationSuffix))
}

// CleanDestination turns a raw destination into display text:
// "RED NORTHBOUND TO NORTH SPRINGS STATION" becomes "North Springs".
// Cleaning a cleaned value returns it unchanged.
func CleanDestination(s string) string {
	d := strings.ToUpper(strings.TrimSpace(s))
	for {
		prev := d
		d = strings.TrimSpace(strings.TrimSuffix(d, stationSuffix))
		for _, p := range routingPrefixes {
			d = strings.TrimPrefix(d, p)
		}
		d = strings.TrimSpace(d)
		if d == prev {
			break
		}
	}
	if d == "" {
		return ""
	}
	// Casers carry state, so one per call. Segments between periods are
	// cased separately so "H.E. HOLMES" keeps both initials.
	caser := cases.Title(language.English)
	segments := strings.Split(d, ".")
	for i, seg := range segments {
		segments[i] = caser.String(seg)
	}
	return strings.Join(segments, ".")
}

// Match keeps the realtime arrivals whose station contains the query and
// shapes them for display, soonest first
func Match(records []marta.Arrival, stationQuery string) []Arrival {
	target := NormalizeStationQuery(stationQuery)

	results := make([]Arrival, 0)
	for _, r := range records {
		if !strings.Contains(strings.ToUpper(r.Station), target) {
			continue
		}

		waiting := r.WaitingSeconds
		if waiting < 0 || waiting > marta.UnknownWaitingSeconds {
			waiting = marta.UnknownWaitingSeconds
		}

		results = append(results, Arrival{
			Station:        r.Station,
			Destination:    CleanDestination(r.Destination),
			Line:           r.Line,
			Direction:      r.Direction,
			WaitingTime:    r.WaitingTime,
			WaitingSeconds: waiting,
			Status:         StatusRealtime,
		})
	}

	sortByWait(results)
	return results
}

func sortByWait(list []Arrival) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].WaitingSeconds < list[j].WaitingSeconds
	})
}
