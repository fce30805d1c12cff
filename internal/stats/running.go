// Package stats implements a single-pass online mean/variance accumulator
// (Welford's algorithm) used for corpus sentence-length baselines.
package stats

import "math"

type Running struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	m2    float64
}

func (r *Running) Add(value float64) {
	r.Count++
	delta := value - r.Mean
	r.Mean += delta / float64(r.Count)
	r.m2 += delta * (value - r.Mean)
}

// Variance is undefined below two samples and reported as 0.
func (r *Running) Variance() float64 {
	if r.Count < 2 {
		return 0
	}
	return r.m2 / float64(r.Count)
}

func (r *Running) Std() float64 {
	return math.Sqrt(r.Variance())
}

// Snapshot is the persisted form: {count, mean, std}. M2 is reconstructed
// from std on load, so Add keeps working after a round-trip.
type Snapshot struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
}

func (r *Running) Snapshot() Snapshot {
	return Snapshot{Count: r.Count, Mean: r.Mean, Std: r.Std()}
}

func FromSnapshot(s Snapshot) Running {
	if s.Count < 0 {
		s.Count = 0
	}
	return Running{
		Count: s.Count,
		Mean:  s.Mean,
		m2:    s.Std * s.Std * float64(s.Count),
	}
}
