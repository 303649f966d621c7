// Package stats holds the numeric primitives shared by the anomaly, fraud and
// performance analyses. All functions are pure and operate on float64 slices.
package stats

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Variance returns the population variance (divide by n, not n-1).
func Variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func StdDev(xs []float64) float64 {
	return math.Sqrt(Variance(xs))
}

// Median sorts a copy of xs and returns the middle element. Even-length input
// returns the lower-middle element (plain truncation), not the average of the
// two middle values.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}

// ZScore returns how many standard deviations x lies from mean. A zero stdDev
// yields 0 so constant series never produce an anomaly signal.
func ZScore(x, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (x - mean) / stdDev
}
