package marta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Decode parses a feed body, keeping numbers as json.Number so integer
// waits are not rounded through float64
func Decode(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	return raw, nil
}

// Normalize converts whatever the feed returned into a list of records.
//
// Accepted shapes are a bare list, an object wrapping the list under one of
// the Trains key variants, and a single arrival object. Anything else yields
// an empty list and ErrUnrecognizedShape.
func Normalize(raw interface{}) ([]Record, error) {
	switch v := raw.(type) {
	case []interface{}:
		return fromList(v), nil
	case map[string]interface{}:
		for _, key := range wrapperKeys {
			inner, ok := v[key]
			if !ok {
				continue
			}
			switch w := inner.(type) {
			case []interface{}:
				return fromList(w), nil
			case map[string]interface{}:
				if isSingleArrival(w) {
					return []Record{Record(w)}, nil
				}
			}
			return []Record{}, ErrUnrecognizedShape
		}
		if isSingleArrival(v) {
			return []Record{Record(v)}, nil
		}
	}
	return []Record{}, ErrUnrecognizedShape
}

func fromList(items []interface{}) []Record {
	records := make([]Record, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		records = append(records, Record(m))
	}
	return records
}

func isSingleArrival(m map[string]interface{}) bool {
	_, ok := lookup(Record(m), destinationKeys...)
	return ok
}

// Canonicalize maps raw records onto Arrival. Records carrying neither a
// station nor a destination are dropped.
func Canonicalize(records []Record) []Arrival {
	arrivals := make([]Arrival, 0, len(records))
	skipped := 0
	for _, rec := range records {
		a, ok := canonicalize(rec)
		if !ok {
			skipped++
			continue
		}
		arrivals = append(arrivals, a)
	}
	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Int("kept", len(arrivals)).Msg("Realtime: dropped malformed records")
	}
	return arrivals
}

func canonicalize(rec Record) (Arrival, bool) {
	if rec == nil {
		return Arrival{}, false
	}
	station, hasStation := lookup(rec, stationKeys...)
	destination, hasDestination := lookup(rec, destinationKeys...)
	if !hasStation && !hasDestination {
		return Arrival{}, false
	}

	a := Arrival{
		Station:        station,
		Destination:    destination,
		WaitingSeconds: UnknownWaitingSeconds,
	}
	a.Line, _ = lookup(rec, lineKeys...)
	a.Direction, _ = lookup(rec, directionKeys...)
	a.WaitingTime, _ = lookup(rec, waitingTimeKeys...)
	if s, ok := lookup(rec, waitingSecondsKeys...); ok {
		a.WaitingSeconds = ParseWaitingSeconds(s)
	}
	return a, true
}

// ParseWaitingSeconds returns the wait as a non-negative integer, or
// UnknownWaitingSeconds when s is not one
func ParseWaitingSeconds(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return UnknownWaitingSeconds
	}
	return n
}

// lookup returns the first non-empty value among the given key variants.
// If none is present it falls back to any key that matches one of them
// ignoring case and underscores ("waiting_seconds", "waitingSeconds").
func lookup(rec Record, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := stringValue(rec[k]); ok {
			return s, true
		}
	}

	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[foldKey(k)] = struct{}{}
	}
	for k, v := range rec {
		if _, ok := want[foldKey(k)]; !ok {
			continue
		}
		if s, ok := stringValue(v); ok {
			return s, true
		}
	}
	return "", false
}

func foldKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(k, "_", ""))
}

func stringValue(v interface{}) (string, bool) {
	var s string
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		s = strconv.Itoa(x)
	case bool:
		s = strconv.FormatBool(x)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
