package stats

import (
	"math"
	"testing"
)

func twoPass(values []float64) (mean, variance float64) {
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, variance
}

func TestRunningMatchesTwoPassVariance(t *testing.T) {
	cases := [][]float64{
		{4},
		{1, 1, 1, 1},
		{2, 4, 4, 4, 5, 5, 7, 9},
		{1e6, 1e6 + 1, 1e6 + 2, 1e6 + 3},
		{-3.5, 0.25, 12.75, 8, 8, -1},
	}
	for _, values := range cases {
		var r Running
		for _, v := range values {
			r.Add(v)
		}
		mean, variance := twoPass(values)
		if math.Abs(r.Mean-mean) > 1e-9 {
			t.Fatalf("mean mismatch for %v: got %f want %f", values, r.Mean, mean)
		}
		if math.Abs(r.Variance()-variance) > 1e-6 {
			t.Fatalf("variance mismatch for %v: got %f want %f", values, r.Variance(), variance)
		}
	}
}

func TestRunningBelowTwoSamplesReportsZeroStd(t *testing.T) {
	var r Running
	if r.Std() != 0 {
		t.Fatalf("empty accumulator should report std 0, got %f", r.Std())
	}
	r.Add(42)
	if r.Std() != 0 {
		t.Fatalf("single sample should report std 0, got %f", r.Std())
	}
	if r.Mean != 42 {
		t.Fatalf("mean after one sample should be 42, got %f", r.Mean)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	var r Running
	for _, v := range []float64{3, 8, 12, 17, 17, 20} {
		r.Add(v)
	}
	restored := FromSnapshot(r.Snapshot())
	if restored.Count != r.Count {
		t.Fatalf("count mismatch: got %d want %d", restored.Count, r.Count)
	}
	if math.Abs(restored.Mean-r.Mean) > 1e-9 {
		t.Fatalf("mean mismatch: got %f want %f", restored.Mean, r.Mean)
	}
	if math.Abs(restored.Std()-r.Std()) > 1e-9 {
		t.Fatalf("std mismatch: got %f want %f", restored.Std(), r.Std())
	}

	// The restored accumulator keeps accepting samples.
	restored.Add(25)
	if restored.Count != r.Count+1 {
		t.Fatalf("restored accumulator did not accept new sample")
	}
}
