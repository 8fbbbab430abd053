package arrivals

import "context"

// Status values for Arrival.Status
const (
	StatusRealtime  = "Realtime"
	StatusScheduled = "Scheduled"
)

// DefaultTargetCount is how many arrivals a station board aims to show
const DefaultTargetCount = 6

// Arrival is one row of the arrivals board as served to clients
type Arrival struct {
	Station        string `json:"station"`
	Destination    string `json:"destination"`
	Line           string `json:"line"`
	Direction      string `json:"direction"`
	WaitingTime    string `json:"waiting_time"`
	WaitingSeconds int    `json:"waiting_seconds"`
	Status         string `json:"status"`
}

// FallbackSource supplies scheduled departures when live data is sparse
type FallbackSource interface {
	ScheduledDepartures(ctx context.Context, stationQuery string, limit int) ([]Arrival, error)
}
