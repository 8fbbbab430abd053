package metrics

import "math"

// RunningStats keeps a running mean and variance with Welford's online
// algorithm, in constant space.
type RunningStats struct {
	Count int
	Mean  float64
	M2    float64 // sum of squared differences from the mean
}

// Update adds an observation
func (w *RunningStats) Update(v float64) {
	w.Count++
	delta := v - w.Mean
	w.Mean += delta / float64(w.Count)
	w.M2 += delta * (v - w.Mean)
}

// StdDev returns the population standard deviation, 0 below two observations
func (w *RunningStats) StdDev() float64 {
	if w.Count < 2 {
		return 0
	}
	return math.Sqrt(w.M2 / float64(w.Count))
}
