package arrivals

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Merger tops up a sparse realtime list with scheduled departures
type Merger struct {
	fallback FallbackSource
	target   int
}

// NewMerger creates a merger aiming for target arrivals. A nil fallback
// means realtime data is returned as-is.
func NewMerger(fallback FallbackSource, target int) *Merger {
	if target <= 0 {
		target = DefaultTargetCount
	}
	return &Merger{fallback: fallback, target: target}
}

// Target returns the number of arrivals the merger aims for
func (m *Merger) Target() int {
	return m.target
}

type destinationKey struct {
	destination string
	direction   string
}

// Merge returns live unchanged when it already holds the target count.
// Otherwise it asks the fallback for about one and a half times the target,
// appends scheduled entries whose (destination, direction) is not already
// on the board until the target is reached, and sorts soonest first.
func (m *Merger) Merge(ctx context.Context, live []Arrival, stationQuery string) []Arrival {
	if len(live) >= m.target {
		return live
	}

	merged := make([]Arrival, 0, m.target)
	merged = append(merged, live...)

	if m.fallback != nil {
		candidates, err := m.fallback.ScheduledDepartures(ctx, stationQuery, m.candidateLimit())
		if err != nil {
			log.Info().Err(err).Str("station", stationQuery).Msg("Arrivals: no scheduled fallback")
		}

		seen := make(map[destinationKey]struct{}, len(merged)+len(candidates))
		for _, a := range merged {
			seen[destinationKey{a.Destination, a.Direction}] = struct{}{}
		}

		for _, c := range candidates {
			if len(merged) >= m.target {
				break
			}
			key := destinationKey{c.Destination, c.Direction}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, c)
		}
	}

	sortByWait(merged)
	return merged
}

// candidateLimit is ceil(target * 1.5), leaving room for duplicates
func (m *Merger) candidateLimit() int {
	return (m.target*3 + 1) / 2
}
