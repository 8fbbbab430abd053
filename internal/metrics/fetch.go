package metrics

import (
	"sync"
	"time"
)

// FetchStats tracks upstream fetch outcomes and latency. Safe for
// concurrent use.
type FetchStats struct {
	mu          sync.Mutex
	latencyMs   RunningStats
	failures    int
	lastFailure time.Time
}

// FetchSummary is a point-in-time copy of FetchStats
type FetchSummary struct {
	Successes       int        `json:"successes"`
	Failures        int        `json:"failures"`
	MeanLatencyMs   float64    `json:"meanLatencyMs"`
	StdDevLatencyMs float64    `json:"stddevLatencyMs"`
	LastFailure     *time.Time `json:"lastFailure,omitempty"`
}

// RecordSuccess counts a successful fetch that took d
func (s *FetchStats) RecordSuccess(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latencyMs.Update(float64(d) / float64(time.Millisecond))
}

// RecordFailure counts a failed fetch at the given time
func (s *FetchStats) RecordFailure(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	s.lastFailure = at
}

// Summary returns the current counters
func (s *FetchStats) Summary() FetchSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := FetchSummary{
		Successes:       s.latencyMs.Count,
		Failures:        s.failures,
		MeanLatencyMs:   s.latencyMs.Mean,
		StdDevLatencyMs: s.latencyMs.StdDev(),
	}
	if !s.lastFailure.IsZero() {
		last := s.lastFailure.UTC()
		sum.LastFailure = &last
	}
	return sum
}
