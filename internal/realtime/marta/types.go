package marta

import "errors"

// Record is one arrival as the upstream feed sent it. Key names and casing
// vary between responses, so fields are read through lookup.
type Record map[string]interface{}

// Arrival represents a normalized arrival from the rail realtime feed
type Arrival struct {
	Station        string
	Destination    string
	Line           string
	Direction      string
	WaitingTime    string // human text from the feed, empty if absent
	WaitingSeconds int    // UnknownWaitingSeconds if absent or non-numeric
}

// UnknownWaitingSeconds marks an arrival with no usable wait so it sorts last
const UnknownWaitingSeconds = 9999

// DefaultUserAgent is sent on every feed request; the MARTA endpoints reject
// clients that do not look like a browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	// ErrUpstreamUnavailable is returned when every feed endpoint failed
	ErrUpstreamUnavailable = errors.New("all realtime feed endpoints failed")

	// ErrUnrecognizedShape is returned for JSON that is neither a list of
	// arrivals, a wrapped list, nor a single arrival
	ErrUnrecognizedShape = errors.New("unrecognized feed shape")
)

// wrapperKeys are checked in order; the first one present wins
var wrapperKeys = []string{"Trains", "trains", "TRAINS"}

// Field name variants, upper-case first
var (
	stationKeys        = []string{"STATION", "Station"}
	destinationKeys    = []string{"DESTINATION", "Destination"}
	lineKeys           = []string{"LINE", "Line"}
	directionKeys      = []string{"DIRECTION", "Direction"}
	waitingTimeKeys    = []string{"WAITING_TIME", "WaitingTime"}
	waitingSecondsKeys = []string{"WAITING_SECONDS", "WaitingSeconds"}
)
